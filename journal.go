package main

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryStatus is the lifecycle state of a journal entry. Entries arrive in
// this system already posted by the upstream posting engine; only posted,
// non-reversed entries participate in aggregation.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// JournalEntry is the header of a double-entry transaction. Read-only to
// this core: it is never created or mutated here.
type JournalEntry struct {
	ID          uint        `gorm:"primaryKey"`
	Number      uint        `gorm:"column:entry_number;not null;index:idx_journal_entries_number"`
	Date        time.Time   `gorm:"column:entry_date;not null;index:idx_journal_entries_date"`
	Status      EntryStatus `gorm:"column:status;not null;index:idx_journal_entries_status"`
	Description string      `gorm:"column:description"`
	CreatedAt   time.Time
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}

// JournalLine is one side of a double-entry. Debit and credit are both
// non-negative; exactly one of them is nonzero on a well-formed line.
type JournalLine struct {
	ID          uint            `gorm:"primaryKey"`
	EntryID     uint            `gorm:"column:entry_id;not null;index:idx_journal_lines_entry"`
	LineNumber  uint            `gorm:"column:line_number;not null"`
	AccountID   uint            `gorm:"column:account_id;not null;index:idx_journal_lines_account"`
	Debit       decimal.Decimal `gorm:"column:debit;type:decimal(20,4);not null"`
	Credit      decimal.Decimal `gorm:"column:credit;type:decimal(20,4);not null"`
	Description string          `gorm:"column:description"`
}

func (JournalLine) TableName() string {
	return "journal_lines"
}

// DateFilter bounds a ledger query. AsOf selects everything up to and
// including a point in time; Before selects everything strictly earlier,
// regardless of how fine-grained the stored entry dates are; From/To select
// a closed range. The bounds are mutually exclusive.
type DateFilter struct {
	AsOf   *time.Time
	Before *time.Time
	From   *time.Time
	To     *time.Time
}

// apply adds the date conditions on a query that joined journal_entries.
func (f DateFilter) apply(q *gorm.DB) *gorm.DB {
	if f.AsOf != nil {
		q = q.Where("journal_entries.entry_date <= ?", *f.AsOf)
	}
	if f.Before != nil {
		q = q.Where("journal_entries.entry_date < ?", *f.Before)
	}
	if f.From != nil {
		q = q.Where("journal_entries.entry_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("journal_entries.entry_date <= ?", *f.To)
	}
	return q
}

// PostingLine is a flattened, read-only view of a posted ledger line with
// its entry metadata, the unit consumed by aggregation and drill-down.
type PostingLine struct {
	AccountID   uint            `gorm:"column:account_id"`
	Debit       decimal.Decimal `gorm:"column:debit"`
	Credit      decimal.Decimal `gorm:"column:credit"`
	EntryDate   time.Time       `gorm:"column:entry_date"`
	EntryNumber uint            `gorm:"column:entry_number"`
	LineNumber  uint            `gorm:"column:line_number"`
	Description string          `gorm:"column:description"`
}

// GetPostingLines retrieves posted, non-reversed ledger lines for the given
// accounts within the date bounds, ordered chronologically by
// (entry_date, entry_number, line_number). An empty accountIDs slice selects
// all accounts.
func GetPostingLines(db *gorm.DB, accountIDs []uint, filter DateFilter) ([]PostingLine, error) {
	q := db.Model(&JournalLine{}).
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Where("journal_entries.status = ?", EntryStatusPosted).
		Select("journal_lines.account_id, journal_lines.debit, journal_lines.credit, " +
			"journal_entries.entry_date, journal_entries.entry_number, journal_lines.line_number, " +
			"journal_lines.description")

	if len(accountIDs) > 0 {
		q = q.Where("journal_lines.account_id IN ?", accountIDs)
	}
	q = filter.apply(q)

	var lines []PostingLine
	err := q.Order("journal_entries.entry_date ASC, journal_entries.entry_number ASC, journal_lines.line_number ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
