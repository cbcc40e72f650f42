package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/internal/workbook"
	"github.com/seyhanlar/sevkiyat/pkg/archive"
	"github.com/seyhanlar/sevkiyat/pkg/config"
)

// ErrNoBranchIdentity means the CSV preamble carried no usable branch
// marker. No template is touched in that case.
var ErrNoBranchIdentity = errors.New("dispatch: no branch identity in order file")

// Summary is the result of one distribution run.
type Summary struct {
	RunID     uuid.UUID
	Branch    order.Identity
	Dropped   int
	Frozen    Stats
	Dessert   Stats
	Logistics Stats
	// Archived is the stored name in the run archive, when archiving is on.
	Archived string
}

// Service reads one order CSV and fans its lines out to the three
// category templates. Each workbook is opened, written and saved
// independently; a structural problem in one template skips that
// category and leaves the others alone.
type Service struct {
	cfg     *config.Config
	log     *slog.Logger
	aliases *order.AliasTable
	store   *archive.Store

	frozen    *FrozenWriter
	dessert   *DessertWriter
	logistics *LogisticsWriter
}

func New(cfg *config.Config, log *slog.Logger, aliases *order.AliasTable) (*Service, error) {
	s := &Service{
		cfg:       cfg,
		log:       log,
		aliases:   aliases,
		frozen:    NewFrozenWriter(log, cfg.Matching.SpanMargin),
		dessert:   NewDessertWriter(log, cfg.Matching.FuzzyThreshold),
		logistics: NewLogisticsWriter(log),
	}
	if cfg.Archive.Dir != "" {
		store, err := archive.NewStore(cfg.Archive.Dir)
		if err != nil {
			return nil, err
		}
		s.store = store
	}
	return s, nil
}

// Run processes one order CSV end to end. sheetHint, when non-empty, is
// tried before the alias table's day-sheet candidates.
func (s *Service) Run(ctx context.Context, csvPath, sheetHint string) (*Summary, error) {
	f, err := order.ReadFile(csvPath, s.aliases)
	if err != nil {
		return nil, err
	}
	if f.Identity.IsZero() {
		return nil, ErrNoBranchIdentity
	}

	hints := make([]string, 0, 4)
	if sheetHint != "" {
		hints = append(hints, sheetHint)
	}
	hints = append(hints, s.aliases.CandidateSheets(f.Identity)...)

	sum := &Summary{
		RunID:   uuid.New(),
		Branch:  f.Identity,
		Dropped: f.Dropped,
	}
	s.log.Info("run started",
		"run_id", sum.RunID,
		"csv", csvPath,
		"branch", f.Identity.Primary,
		"fallback", f.Identity.Fallback,
		"lines", len(f.Lines),
		"dropped", f.Dropped)

	sum.Frozen = s.runCategory(ctx, s.cfg.Templates.FrozenPath, func(b *workbook.Book) Stats {
		return s.frozen.Run(b, f, hints)
	})
	sum.Dessert = s.runCategory(ctx, s.cfg.Templates.DessertPath, func(b *workbook.Book) Stats {
		return s.dessert.Run(b, f, hints)
	})
	sum.Logistics = s.runCategory(ctx, s.cfg.Templates.LogisticsPath, func(b *workbook.Book) Stats {
		return s.logistics.Run(b, f, hints)
	})

	if s.store != nil {
		rec, err := s.store.Put(csvPath, archive.Record{
			RunID:            sum.RunID,
			Branch:           f.Identity.Primary,
			FrozenWritten:    sum.Frozen.Written,
			DessertWritten:   sum.Dessert.Written,
			LogisticsWritten: sum.Logistics.Written,
		})
		if err != nil {
			s.log.Warn("archive failed", "run_id", sum.RunID, "err", err)
		} else {
			sum.Archived = rec.StoredName
		}
	}

	s.log.Info("run finished",
		"run_id", sum.RunID,
		"frozen", sum.Frozen.Written,
		"dessert", sum.Dessert.Written,
		"logistics", sum.Logistics.Written)
	return sum, nil
}

// Clear resets a branch's numeric cells in the frozen and dessert
// templates by processing an empty order. Text-total labels keep their
// last written quantity; only a run that carries those products rewrites
// them. The logistics template keeps its lines; those reflect what was
// actually requested, not a daily grid.
func (s *Service) Clear(ctx context.Context, branch, sheetHint string) (*Summary, error) {
	id := order.Identity{Primary: s.aliases.Canonical(branch)}
	if id.IsZero() {
		return nil, ErrNoBranchIdentity
	}
	f := &order.File{Identity: id}

	hints := make([]string, 0, 4)
	if sheetHint != "" {
		hints = append(hints, sheetHint)
	}
	hints = append(hints, s.aliases.CandidateSheets(id)...)

	sum := &Summary{RunID: uuid.New(), Branch: id}
	s.log.Info("clear started", "run_id", sum.RunID, "branch", id.Primary)

	sum.Frozen = s.runCategory(ctx, s.cfg.Templates.FrozenPath, func(b *workbook.Book) Stats {
		return s.frozen.Run(b, f, hints)
	})
	sum.Dessert = s.runCategory(ctx, s.cfg.Templates.DessertPath, func(b *workbook.Book) Stats {
		return s.dessert.Run(b, f, hints)
	})
	return sum, nil
}

// runCategory opens one template, applies the writer and saves. Open and
// save failures become a skipped Stats rather than a run failure.
func (s *Service) runCategory(ctx context.Context, path string, write func(*workbook.Book) Stats) Stats {
	if err := ctx.Err(); err != nil {
		return Stats{Skipped: true, Err: err}
	}
	book, err := workbook.Open(path)
	if err != nil {
		s.log.Warn("template unavailable", "path", path, "err", err)
		return Stats{Skipped: true, Err: err}
	}
	defer book.Close()

	stats := write(book)
	if stats.Skipped {
		if stats.Err != nil {
			s.log.Warn("category skipped", "path", path, "err", stats.Err)
		}
		return stats
	}
	if err := book.Save(); err != nil {
		return Stats{Skipped: true, Err: fmt.Errorf("dispatch: save %s: %w", path, err)}
	}
	if stats.Unmatched > 0 {
		s.log.Warn("unmatched lines", "path", path, "count", stats.Unmatched)
	}
	return stats
}
