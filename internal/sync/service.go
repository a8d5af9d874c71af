// internal/sync/service.go
package sync

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/products"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/reconcile"
)

// Journal records signups that have already been handled.
type Journal interface {
	Exists(ctx context.Context, signupID int64) (bool, error)
	Save(ctx context.Context, signup *models.SignUpEvent, receivedAt time.Time) error
}

// Service runs the product comparison and handles signup events.
type Service struct {
	logger  *log.Logger
	out     io.Writer
	journal Journal
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithJournal enables duplicate detection for signups.
func WithJournal(journal Journal) Option {
	return func(s *Service) {
		s.journal = journal
	}
}

// NewService creates a new service. Human readable output goes to out.
func NewService(logger *log.Logger, out io.Writer, opts ...Option) *Service {
	s := &Service{
		logger: logger,
		out:    out,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompareResult contains the results of a strategy comparison.
type CompareResult struct {
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Duration  string            `json:"duration"`
	OldCount  int               `json:"old_count"`
	NewCount  int               `json:"new_count"`
	Old       models.Products   `json:"old"`
	New       models.Products   `json:"new"`
	Report    *reconcile.Report `json:"report"`
}

// CompareStrategies collects products with the connection traversal, then
// with the entrance traversal, and compares the two sets. Any failure aborts.
func (s *Service) CompareStrategies(ctx context.Context, api products.Source) (*CompareResult, error) {
	result := &CompareResult{StartTime: s.now()}

	s.logger.Printf("🚀 Collecting products by account connections...")
	old, err := products.ByAccountConnections(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("old algorithm failed: %w", err)
	}
	s.logger.Printf("✅ Old algorithm produced %d products", len(old))

	s.logger.Printf("🚀 Collecting products by entrance services...")
	updated, err := products.ByEntranceServices(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("new algorithm failed: %w", err)
	}
	s.logger.Printf("✅ New algorithm produced %d products", len(updated))

	result.Old = old
	result.New = updated
	result.OldCount = len(old)
	result.NewCount = len(updated)
	result.Report = reconcile.Compare(old, updated)
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime).String()

	if result.Report.Same {
		s.logger.Printf("🎉 Both algorithms agree")
	} else {
		s.logger.Printf("⚠️  %d discrepancies found", result.Report.Count())
	}

	return result, nil
}

// HandleSignup prints a signup and journals it. Signups already in the
// journal are skipped.
func (s *Service) HandleSignup(ctx context.Context, signup models.SignUpEvent) error {
	if s.journal != nil {
		exists, err := s.journal.Exists(ctx, signup.ID)
		if err != nil {
			return fmt.Errorf("failed to check journal: %w", err)
		}
		if exists {
			s.logger.Printf("⏭️  Signup %d already handled", signup.ID)
			return nil
		}
	}

	if err := WriteSignup(s.out, &signup); err != nil {
		return fmt.Errorf("failed to print signup: %w", err)
	}

	if s.journal != nil {
		if err := s.journal.Save(ctx, &signup, s.now()); err != nil {
			return fmt.Errorf("failed to journal signup: %w", err)
		}
	}

	return nil
}

// WriteSignup prints the summary block of a new company signup.
func WriteSignup(w io.Writer, signup *models.SignUpEvent) error {
	address := signup.Address
	_, err := fmt.Fprintf(w, "\n📝 New subscriber signup:\n"+
		"   ID: %d\n"+
		"   Phone: %s\n"+
		"   Country: %s (%s)\n"+
		"   Address: %s, st. %s, h. %s\n"+
		"   Application: %s (%s)\n"+
		"   Virtual handset: %t\n"+
		"   Offer signed: %t\n"+
		"   Contract number: %s\n"+
		"   Status: %s\n",
		signup.Abonent.ID,
		signup.Abonent.Phone,
		address.Country.Name, address.Country.ShortName,
		address.City, address.Street.Name, address.House.Number,
		signup.Application.Name, signup.Application.Provider,
		signup.Virtual,
		signup.OfferSigned,
		signup.ContractOrDefault(),
		signup.Status,
	)
	return err
}

// WriteProducts dumps a product set, one key per line in sorted order.
func WriteProducts(w io.Writer, set models.Products) error {
	var b strings.Builder
	b.WriteString("{\n")
	for _, key := range set.Keys() {
		fmt.Fprintf(&b, "  %q: %s,\n", key, set[key])
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
