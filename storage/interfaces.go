package storage

import "pcc-tenders/models"

// TableWriter is the interface any export or archive backend must satisfy.
type TableWriter interface {
	WriteTable(t *models.DisplayTable) error
	Close() error
}
