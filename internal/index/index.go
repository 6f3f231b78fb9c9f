package index

// Ledger is what the sync service and the control surfaces need from the
// database. Consumers depend on this rather than *DB so tests can use fakes.
type Ledger interface {
	UpsertDocument(d DocumentRow, body string) error
	GetDocument(id string) (*DocumentRow, error)
	ListDocuments(limit, offset int) ([]DocumentRow, int, error)
	DeleteDocument(id string) error
	MovePrefix(oldDir, newDir string) (int, error)
	DocumentPaths() (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)

	StartRun() (string, error)
	FinishRun(id string, r Run) error
	LastRun() (*Run, error)
	ListRuns(limit int) ([]Run, error)

	Close() error
}

var _ Ledger = (*DB)(nil)
