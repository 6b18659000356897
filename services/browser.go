package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kbconsole/filter"
	"kbconsole/models"

	"go.uber.org/zap"
)

// Browser is one interactive browse session over the article list: the filter
// session, the last loaded page and the open dialog. Filter changes reload the list;
// search text reloads only after typing pauses.
type Browser struct {
	articles ArticleService
	ctx      context.Context
	session  *filter.Session
	log      *zap.Logger

	mu      sync.Mutex
	items   []models.KnowledgeArticle
	loadErr error
	dialog  DialogState
	loads   int
	seq     uint64 // stamp of the most recently started reload
}

// NewBrowser opens a session for the principal carried by ctx and loads the first page.
func NewBrowser(ctx context.Context, articles ArticleService, debounce time.Duration, log *zap.Logger) *Browser {
	b := &Browser{
		articles: articles,
		ctx:      ctx,
		dialog:   Idle(),
		log:      log.Named("Browser"),
	}
	b.session = filter.NewSession(filter.DefaultState(), debounce, b.reload)
	b.reload(b.session.State())
	return b
}

// reload lists the current filter. Reloads can overlap when a debounced search is
// still loading as a selector changes; only the most recently started one is applied.
func (b *Browser) reload(filter.State) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	st := b.session.State()
	b.mu.Unlock()

	items, err := b.articles.List(b.ctx, st.Params(""))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if seq != b.seq {
		b.log.Debug("dropping superseded list reload", zap.Uint64("seq", seq), zap.Uint64("latest", b.seq))
		return
	}
	if err != nil {
		b.loadErr = err
		b.log.Warn("list reload failed", zap.Error(err))
		return
	}
	b.items, b.loadErr = items, nil
}

// Refresh reloads the list with the current filter.
func (b *Browser) Refresh() {
	b.reload(b.session.State())
}

// Items returns the last successfully loaded page and the error of the latest load.
func (b *Browser) Items() ([]models.KnowledgeArticle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items, b.loadErr
}

// Loads counts list loads, successful or not.
func (b *Browser) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads
}

func (b *Browser) Filter() filter.State { return b.session.State() }
func (b *Browser) Search(text string) { b.session.SetSearch(text) }
func (b *Browser) SubmitSearch() { b.session.FlushSearch() }
func (b *Browser) SetCategory(category string) { b.session.SetCategory(category) }
func (b *Browser) SetTab(tab filter.Tab) { b.session.SetTab(tab) }
func (b *Browser) SetApprovalStatus(status string) { b.session.SetApprovalStatus(status) }

// Dialog returns the current dialog state.
func (b *Browser) Dialog() DialogState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dialog
}

// OpenDialog opens mode for articleID.
func (b *Browser) OpenDialog(mode DialogMode, articleID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := b.dialog.Open(mode, articleID)
	if err != nil {
		return err
	}
	b.dialog = next
	return nil
}

// CloseDialog dismisses the open dialog without acting.
func (b *Browser) CloseDialog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dialog = b.dialog.Close()
}

// Save submits the create or edit dialog.
func (b *Browser) Save(in models.ArticleInput) (*models.KnowledgeArticle, error) {
	d := b.Dialog()
	var (
		article *models.KnowledgeArticle
		err     error
	)
	switch d.Mode {
	case DialogCreating:
		article, err = b.articles.Create(b.ctx, in)
	case DialogEditing:
		article, err = b.articles.Update(b.ctx, d.ArticleID, in)
	default:
		return nil, fmt.Errorf("%w: nothing to save in %s", ErrDialogTransition, d.Mode)
	}
	return article, b.finish(err)
}

// ConfirmDelete submits the delete dialog.
func (b *Browser) ConfirmDelete() error {
	d := b.Dialog()
	if d.Mode != DialogDeleting {
		return fmt.Errorf("%w: no delete pending in %s", ErrDialogTransition, d.Mode)
	}
	return b.finish(b.articles.Delete(b.ctx, d.ArticleID))
}

// Review submits the review dialog: approve, or reject with reason.
func (b *Browser) Review(approve bool, reason string) (*models.KnowledgeArticle, error) {
	d := b.Dialog()
	if d.Mode != DialogReviewing {
		return nil, fmt.Errorf("%w: no review pending in %s", ErrDialogTransition, d.Mode)
	}
	var (
		article *models.KnowledgeArticle
		err     error
	)
	if approve {
		article, err = b.articles.Approve(b.ctx, d.ArticleID)
	} else {
		article, err = b.articles.Reject(b.ctx, d.ArticleID, reason)
	}
	return article, b.finish(err)
}

// finish closes the dialog and reloads after a successful action, or keeps the
// dialog open with the error.
func (b *Browser) finish(err error) error {
	b.mu.Lock()
	if err != nil {
		b.dialog = b.dialog.Fail(err)
		b.mu.Unlock()
		return err
	}
	b.dialog = b.dialog.Close()
	b.mu.Unlock()
	b.Refresh()
	return nil
}

// Close stops the filter session.
func (b *Browser) Close() {
	b.session.Close()
}
