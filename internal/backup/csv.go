package backup

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/canasta-labs/pricewatch/pkg/model"
)

// Writer emits one delimited-text archive file per source per run, holding
// the exact record set persisted that run. Archives are write-only: nothing
// in the system ever reads them back.
type Writer struct {
	logger *zap.Logger
	dir    string
}

// NewWriter creates a Writer rooted at dir. The directory is created lazily
// on first write.
func NewWriter(logger *zap.Logger, dir string) *Writer {
	return &Writer{logger: logger, dir: dir}
}

// filename builds <dir>/<source>_<YYYYMMDD_HHMMSS>.csv.
func (w *Writer) filename(source string, ts time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", source, ts.Format("20060102_150405")))
}

// WriteProducts archives the persisted product set for one source.
func (w *Writer) WriteProducts(source string, ts time.Time, records []model.Product) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	header := []string{
		"timestamp", "source", "category", "name", "brand",
		"price", "price_min", "price_max", "package", "external_id",
		"outlet_count", "seller", "link", "condition", "stock", "lat", "lng",
	}
	rows := make([][]string, 0, len(records))
	for _, p := range records {
		rows = append(rows, []string{
			p.Timestamp.Format(time.RFC3339),
			p.Source,
			p.Category,
			p.Name,
			p.Brand,
			formatFloat(p.Price),
			formatFloat(p.PriceMin),
			formatFloat(p.PriceMax),
			p.Package,
			p.ExternalID,
			strconv.Itoa(p.OutletCount),
			p.Seller,
			p.Link,
			p.Condition,
			strconv.Itoa(p.Stock),
			formatFloat(p.Lat),
			formatFloat(p.Lng),
		})
	}

	return w.write(source, ts, header, rows)
}

// WriteQuotes archives the persisted quote set for one source.
func (w *Writer) WriteQuotes(source string, ts time.Time, records []model.Quote) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	header := []string{"timestamp", "source", "name", "buy", "sell", "currency", "source_updated_at"}
	rows := make([][]string, 0, len(records))
	for _, q := range records {
		rows = append(rows, []string{
			q.Timestamp.Format(time.RFC3339),
			q.Source,
			q.Name,
			formatFloat(q.Buy),
			formatFloat(q.Sell),
			q.Currency,
			q.SourceUpdatedAt,
		})
	}

	return w.write(source, ts, header, rows)
}

func (w *Writer) write(source string, ts time.Time, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := w.filename(source, ts)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return "", err
	}
	if err := cw.WriteAll(rows); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	w.logger.Info("backup.written",
		zap.String("file", path),
		zap.Int("rows", len(rows)))
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
