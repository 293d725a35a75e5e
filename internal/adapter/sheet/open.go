package sheet

import (
	"context"
	"fmt"

	"github.com/couchcryptid/water-balance-report/internal/config"
	"github.com/couchcryptid/water-balance-report/internal/domain"
)

// Source is a file-backed report source. It satisfies report.Source.
type Source interface {
	Name() string
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) (*domain.Table, error)
}

// Open returns the source described by the SOURCE_* settings.
func Open(cfg *config.Config) (Source, error) {
	switch cfg.SourceFormat {
	case config.FormatXLSX:
		return NewXLSXSource(cfg.SourcePath, Layout{
			Sheet:       cfg.SourceSheet,
			HeaderRow:   cfg.SourceHeaderRow,
			FirstColumn: cfg.SourceFirstColumn,
		})
	case config.FormatCSV:
		return NewCSVSource(cfg.SourcePath), nil
	default:
		return nil, fmt.Errorf("unsupported source format %q", cfg.SourceFormat)
	}
}
