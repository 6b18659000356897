package services

import (
	"context"
	"testing"

	"kbconsole/filter"
	"kbconsole/identity"
	"kbconsole/models"
	"kbconsole/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyDevice(t *testing.T) {
	cases := map[string]models.DeviceType{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)":    models.DeviceMobile,
		"Mozilla/5.0 (Linux; ANDROID 14; Pixel 8)":                  models.DeviceMobile,
		"Mozilla/5.0 (X11; Linux x86_64) mobile safari":             models.DeviceMobile,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/126.0":    models.DeviceDesktop,
		"":                                                          models.DeviceDesktop,
	}
	for ua, want := range cases {
		assert.Equal(t, want, ClassifyDevice(ua), ua)
	}
}

func newTrackingFixture(pr *identity.Principal) (TrackingService, *articleFixture) {
	f := newArticleFixture(pr)
	return NewTrackingService(f.svc, f.repo, identity.Static{Principal: pr}, f.cache, zap.NewNop()), f
}

func TestTrackingService_RecordView(t *testing.T) {
	svc, f := newTrackingFixture(alice)
	f.repo.On("Get", mock.Anything, "a1").Return(draftBy("bob"), nil)
	f.repo.On("RecordView", mock.Anything, mock.MatchedBy(func(v *models.ArticleView) bool {
		return v.ArticleID == "a1" &&
			v.DeviceType == models.DeviceMobile &&
			v.ViewerID != nil && *v.ViewerID == "alice"
	})).Return(nil).Once()

	require.NoError(t, svc.RecordView(context.Background(), "a1", "Android"))
	f.repo.AssertExpectations(t)
}

func TestTrackingService_RecordViewMissingArticle(t *testing.T) {
	svc, f := newTrackingFixture(alice)
	f.repo.On("Get", mock.Anything, "zz").Return(nil, repository.ErrNotFound)

	err := svc.RecordView(context.Background(), "zz", "")
	assert.ErrorIs(t, err, ErrNotFound)
	f.repo.AssertNotCalled(t, "RecordView", mock.Anything, mock.Anything)
}

func TestTrackingService_MarkHelpfulInvalidates(t *testing.T) {
	svc, f := newTrackingFixture(alice)
	ctx := context.Background()
	f.repo.On("List", mock.Anything, mock.Anything).Return([]models.KnowledgeArticle{}, nil)
	f.repo.On("Get", mock.Anything, "a1").Return(draftBy("bob"), nil)
	f.repo.On("IncrementCounter", mock.Anything, "a1", repository.CounterHelpful).Return(nil).Once()

	_, err := f.svc.List(ctx, filter.Params{})
	require.NoError(t, err)
	require.NoError(t, svc.MarkHelpful(ctx, "a1"))
	_, err = f.svc.List(ctx, filter.Params{})
	require.NoError(t, err)

	f.repo.AssertNumberOfCalls(t, "List", 2)
}
