// Package importer loads catalog CSV exports into the commerce platform
// through the storefront's admin surface.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"storefront/internal/domain"
)

type ProductWriter interface {
	CreateProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// CSVImporter reads product rows and creates them via a ProductWriter. The
// expected columns are name, description, price, inventory, category and
// image_url; unknown columns are ignored.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:   csvr,
		products: products,
	}
}

// Run parses the CSV and creates one product per row, returning the number
// created. The first invalid row aborts the run.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, errors.Wrap(err, "read row")
		}

		product, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if product == nil {
			continue
		}

		if _, err := i.products.CreateProduct(ctx, *product); err != nil {
			return imported, errors.Wrapf(err, "create product %q", product.Name)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	name := pick(record, index, "name")
	if name == "" {
		// blank spacer rows are tolerated
		if strings.TrimSpace(strings.Join(record, "")) == "" {
			return nil, nil
		}
		return nil, errors.New("product row missing name")
	}

	price, err := parseFloat(pick(record, index, "price"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid price for %q", name)
	}
	stock, err := parseInt(pick(record, index, "inventory"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid inventory for %q", name)
	}

	return &domain.Product{
		Name:        name,
		Description: pick(record, index, "description"),
		Price:       price,
		Stock:       stock,
		Category:    pick(record, index, "category"),
		ImageURL:    pick(record, index, "image_url"),
	}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
