package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/obra/internal/db"
	"github.com/alexanderramin/obra/internal/importer"
	"github.com/alexanderramin/obra/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	doc, err := importer.LoadImportDocument(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.Import(ctx, doc)
}

// Import validates the document and writes the project, its WBS and the
// optional budget version in one transaction.
func (s *importService) Import(ctx context.Context, doc *importer.ImportDocument) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"short_id": doc.Project.ShortID}
	defer func() { observeUseCase(ctx, s.observer, "import-project", startedAt, fields, err) }()

	if errs := importer.ValidateImportDocument(doc); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(doc)
	if err != nil {
		return nil, fmt.Errorf("converting import document: %w", err)
	}
	fields["node_count"] = len(generated.Nodes)
	fields["line_count"] = len(generated.Lines)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)
		if _, err := r.projects.GetByShortID(ctx, generated.Project.ShortID); err == nil {
			return fmt.Errorf("project %s already exists", generated.Project.ShortID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if err := r.projects.Create(ctx, generated.Project); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		for _, node := range generated.Nodes {
			if err := r.nodes.Create(ctx, node); err != nil {
				return fmt.Errorf("creating node %s %q: %w", node.Code, node.Name, err)
			}
		}
		if generated.Version == nil {
			return nil
		}
		if err := r.budgets.CreateVersion(ctx, generated.Version); err != nil {
			return fmt.Errorf("creating budget version %s: %w", generated.Version.VersionCode, err)
		}
		for _, line := range generated.Lines {
			if err := r.budgets.UpsertLine(ctx, line); err != nil {
				return fmt.Errorf("creating budget line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Project:   generated.Project,
		Version:   generated.Version,
		NodeCount: len(generated.Nodes),
		LineCount: len(generated.Lines),
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
