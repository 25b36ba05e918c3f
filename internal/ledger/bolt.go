package ledger

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

var (
	entriesBucket   = []byte("invoices")
	invoiceIDBucket = []byte("invoice_ids")
)

// ErrNotFound is returned when no entry has the requested ID
var ErrNotFound = errors.New("entry not found")

// DB is the ledger of invoices accepted into the workbook
type DB interface {
	// SaveEntry stores an entry, replacing any entry with the same ID
	SaveEntry(entry *Entry) error

	// GetEntry returns the entry with the given ID or ErrNotFound
	GetEntry(id string) (*Entry, error)

	// FindByInvoiceID returns every entry recorded for an invoice number, oldest first
	FindByInvoiceID(invoiceID string) ([]*Entry, error)

	// ListEntries returns all entries, oldest first
	ListEntries() ([]*Entry, error)

	Close() error
}

// BoltDB keeps entries as JSON in one bucket and indexes them by invoice
// number in a second bucket whose keys are "<invoice id>\x00<entry id>".
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the ledger file at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{entriesBucket, invoiceIDBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func indexKey(invoiceID, entryID string) []byte {
	return []byte(invoiceID + "\x00" + entryID)
}

func invoiceIDOf(e *Entry) string {
	if e.Invoice == nil || e.Invoice.InvoiceID == nil {
		return ""
	}
	return *e.Invoice.InvoiceID
}

// SaveEntry stores an entry and keeps the invoice number index in step
func (b *BoltDB) SaveEntry(entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket(entriesBucket)
		index := tx.Bucket(invoiceIDBucket)

		if old := entries.Get([]byte(entry.ID)); old != nil {
			var previous Entry
			if err := json.Unmarshal(old, &previous); err != nil {
				return fmt.Errorf("unmarshaling replaced entry: %w", err)
			}
			if id := invoiceIDOf(&previous); id != "" {
				if err := index.Delete(indexKey(id, entry.ID)); err != nil {
					return err
				}
			}
		}

		if id := invoiceIDOf(entry); id != "" {
			if err := index.Put(indexKey(id, entry.ID), nil); err != nil {
				return err
			}
		}
		return entries.Put([]byte(entry.ID), data)
	})
}

func getEntry(tx *bbolt.Tx, id string) (*Entry, error) {
	data := tx.Bucket(entriesBucket).Get([]byte(id))
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry %s: %w", id, err)
	}
	return &entry, nil
}

// GetEntry returns the entry with the given ID
func (b *BoltDB) GetEntry(id string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		entry, err = getEntry(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// FindByInvoiceID walks the index prefix for invoiceID
func (b *BoltDB) FindByInvoiceID(invoiceID string) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	if invoiceID == "" {
		return entries, nil
	}

	prefix := indexKey(invoiceID, "")
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(invoiceIDBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			entry, err := getEntry(tx, string(k[len(prefix):]))
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortEntries(entries)
	return entries, nil
}

// ListEntries returns all entries, oldest first
func (b *BoltDB) ListEntries() ([]*Entry, error) {
	entries := make([]*Entry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry %s: %w", k, err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortEntries(entries)
	return entries, nil
}

// sortEntries orders by creation time, then by workbook row
func sortEntries(entries []*Entry) {
	slices.SortFunc(entries, func(a, b *Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})
}

// Close closes the ledger file
func (b *BoltDB) Close() error {
	return b.db.Close()
}
