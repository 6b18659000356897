package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kbconsole/filter"
	"kbconsole/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBrowser(t *testing.T, svc *MockArticleService, debounce time.Duration) *Browser {
	t.Helper()
	b := NewBrowser(context.Background(), svc, debounce, zap.NewNop())
	t.Cleanup(b.Close)
	return b
}

func TestBrowser_InitialLoadAndSelectors(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, filter.Params{Category: filter.All, Tab: filter.TabAll, ApprovalStatus: filter.All}).
		Return([]models.KnowledgeArticle{{ID: "a1"}}, nil).Once()
	svc.On("List", mock.Anything, filter.Params{Category: "security", Tab: filter.TabAll, ApprovalStatus: filter.All}).
		Return([]models.KnowledgeArticle{{ID: "a2"}}, nil).Once()

	b := newTestBrowser(t, svc, time.Hour)
	items, err := b.Items()
	require.NoError(t, err)
	assert.Equal(t, "a1", items[0].ID)

	b.SetCategory("security")
	items, err = b.Items()
	require.NoError(t, err)
	assert.Equal(t, "a2", items[0].ID)
	assert.Equal(t, 2, b.Loads())
}

func TestBrowser_SearchReloadsAfterPause(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool { return p.Search == "" })).
		Return([]models.KnowledgeArticle{}, nil).Once()
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool { return p.Search == "kms" })).
		Return([]models.KnowledgeArticle{{ID: "k"}}, nil).Once()

	b := newTestBrowser(t, svc, 30*time.Millisecond)
	b.Search("k")
	b.Search("km")
	b.Search("kms")
	assert.Equal(t, 1, b.Loads())

	require.Eventually(t, func() bool { return b.Loads() == 2 }, time.Second, 5*time.Millisecond)
	items, err := b.Items()
	require.NoError(t, err)
	assert.Equal(t, "k", items[0].ID)
	assert.Equal(t, "kms", b.Filter().DebouncedQuery)
}

func TestBrowser_SupersededReloadIsDropped(t *testing.T) {
	svc := new(MockArticleService)
	started := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool { return p.Search == "" })).
		Return([]models.KnowledgeArticle{{ID: "initial"}}, nil).Once()
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool {
		return p.Search == "s3" && p.Category == filter.All
	})).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]models.KnowledgeArticle{{ID: "old-all"}}, nil).Once()
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool {
		return p.Search == "s3" && p.Category == "cost"
	})).Return([]models.KnowledgeArticle{{ID: "new-cost"}}, nil).Once()

	b := newTestBrowser(t, svc, 10*time.Millisecond)
	t.Cleanup(unblock)

	b.Search("s3")
	<-started
	b.SetCategory("cost")

	items, err := b.Items()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "new-cost", items[0].ID)

	unblock()
	require.Eventually(t, func() bool { return b.Loads() == 3 }, time.Second, 5*time.Millisecond)
	items, err = b.Items()
	require.NoError(t, err)
	assert.Equal(t, "new-cost", items[0].ID, "the older search result must not replace the newer page")
	svc.AssertExpectations(t)
}

func TestBrowser_LoadErrorKeepsLastItems(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool { return p.Tab == filter.TabAll })).
		Return([]models.KnowledgeArticle{{ID: "a1"}}, nil).Once()
	svc.On("List", mock.Anything, mock.MatchedBy(func(p filter.Params) bool { return p.Tab == filter.TabPending })).
		Return(nil, errors.New("backend down")).Once()

	b := newTestBrowser(t, svc, time.Hour)
	b.SetTab(filter.TabPending)

	items, err := b.Items()
	assert.EqualError(t, err, "backend down")
	assert.Len(t, items, 1)
}

func TestBrowser_SaveEditClosesDialogAndReloads(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, mock.Anything).Return([]models.KnowledgeArticle{}, nil)
	input := models.ArticleInput{Title: "t", Category: models.CategoryCost}
	svc.On("Update", mock.Anything, "a1", input).Return(&models.KnowledgeArticle{ID: "a1"}, nil).Once()

	b := newTestBrowser(t, svc, time.Hour)
	require.NoError(t, b.OpenDialog(DialogEditing, "a1"))

	_, err := b.Save(input)
	require.NoError(t, err)
	assert.Equal(t, Idle(), b.Dialog())
	assert.Equal(t, 2, b.Loads())
}

func TestBrowser_FailedActionKeepsDialogOpen(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, mock.Anything).Return([]models.KnowledgeArticle{}, nil)
	svc.On("Reject", mock.Anything, "a1", "").Return(nil, models.ErrRejectionReasonRequired).Once()

	b := newTestBrowser(t, svc, time.Hour)
	require.NoError(t, b.OpenDialog(DialogReviewing, "a1"))

	_, err := b.Review(false, "")
	assert.ErrorIs(t, err, models.ErrRejectionReasonRequired)
	d := b.Dialog()
	assert.Equal(t, DialogReviewing, d.Mode)
	assert.Equal(t, models.ErrRejectionReasonRequired.Error(), d.Error)
	assert.Equal(t, 1, b.Loads())
}

func TestBrowser_ActionsNeedTheirDialog(t *testing.T) {
	svc := new(MockArticleService)
	svc.On("List", mock.Anything, mock.Anything).Return([]models.KnowledgeArticle{}, nil)

	b := newTestBrowser(t, svc, time.Hour)
	assert.ErrorIs(t, b.ConfirmDelete(), ErrDialogTransition)
	_, err := b.Save(models.ArticleInput{})
	assert.ErrorIs(t, err, ErrDialogTransition)

	require.NoError(t, b.OpenDialog(DialogDeleting, "a1"))
	assert.ErrorIs(t, b.OpenDialog(DialogEditing, "a1"), ErrDialogTransition)

	svc.On("Delete", mock.Anything, "a1").Return(nil).Once()
	require.NoError(t, b.ConfirmDelete())
	assert.False(t, b.Dialog().IsOpen())
}
