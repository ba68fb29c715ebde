package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feed_ingestor/internal/domain"
	"feed_ingestor/internal/service/mocks"
)

type HealthTrackerTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	sources   *mocks.MockSourceStore
	txManager *mocks.MockTransactionManager

	tracker *HealthTracker
}

func (s *HealthTrackerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sources = mocks.NewMockSourceStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	s.tracker = NewHealthTracker(s.sources, s.txManager, testLogger())
}

func (s *HealthTrackerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestHealthTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(HealthTrackerTestSuite))
}

func (s *HealthTrackerTestSuite) TestSuccessResetsImmediately() {
	ctx := context.Background()
	s.sources.EXPECT().ResetFailureCount(ctx, int64(1)).Return(nil)

	s.NoError(s.tracker.RecordOutcome(ctx, 1, domain.SuccessOutcome(4)))
	s.Zero(s.tracker.Pending())

	report, err := s.tracker.ApplyPendingUpdates(ctx)
	s.NoError(err)
	s.Empty(report.Updated)
}

func (s *HealthTrackerTestSuite) TestSuccessResetFailure() {
	ctx := context.Background()
	s.sources.EXPECT().ResetFailureCount(ctx, int64(1)).Return(errors.New("timeout"))

	err := s.tracker.RecordOutcome(ctx, 1, domain.SuccessOutcome(1))

	var persistErr *domain.PersistError
	s.ErrorAs(err, &persistErr)
}

func (s *HealthTrackerTestSuite) TestFailureBelowThresholdStaysActive() {
	ctx := context.Background()
	s.NoError(s.tracker.RecordOutcome(ctx, 5, domain.FailureOutcome("boom")))

	s.sources.EXPECT().GetFailureCount(ctx, int64(5)).Return(1, nil)
	s.sources.EXPECT().UpdateHealth(ctx, int64(5), 2, true).Return(nil)

	report, err := s.tracker.ApplyPendingUpdates(ctx)

	s.NoError(err)
	s.Equal([]int64{5}, report.Updated)
	s.Empty(report.Deactivated)
}

func (s *HealthTrackerTestSuite) TestFailureAtThresholdDeactivates() {
	ctx := context.Background()
	s.NoError(s.tracker.RecordOutcome(ctx, 5, domain.FailureOutcome("boom")))

	s.sources.EXPECT().GetFailureCount(ctx, int64(5)).Return(2, nil)
	s.sources.EXPECT().UpdateHealth(ctx, int64(5), 3, false).Return(nil)

	report, err := s.tracker.ApplyPendingUpdates(ctx)

	s.NoError(err)
	s.Equal([]int64{5}, report.Deactivated)
}

func (s *HealthTrackerTestSuite) TestZeroArticlesIncrementsOnce() {
	ctx := context.Background()
	s.NoError(s.tracker.RecordOutcome(ctx, 9, domain.ZeroArticlesOutcome()))
	s.NoError(s.tracker.RecordOutcome(ctx, 9, domain.ZeroArticlesOutcome()))
	s.Equal(1, s.tracker.Pending())

	s.sources.EXPECT().GetFailureCount(ctx, int64(9)).Return(0, nil)
	s.sources.EXPECT().UpdateHealth(ctx, int64(9), 1, true).Return(nil)

	_, err := s.tracker.ApplyPendingUpdates(ctx)
	s.NoError(err)
	s.Zero(s.tracker.Pending())
}

func (s *HealthTrackerTestSuite) TestApplyPropagatesStoreError() {
	ctx := context.Background()
	s.NoError(s.tracker.RecordOutcome(ctx, 1, domain.FailureOutcome("x")))
	s.NoError(s.tracker.RecordOutcome(ctx, 2, domain.FailureOutcome("y")))

	s.sources.EXPECT().GetFailureCount(ctx, int64(1)).Return(0, nil)
	s.sources.EXPECT().UpdateHealth(ctx, int64(1), 1, true).Return(nil)
	s.sources.EXPECT().GetFailureCount(ctx, int64(2)).Return(0, errors.New("gone"))

	report, err := s.tracker.ApplyPendingUpdates(ctx)

	var persistErr *domain.PersistError
	s.ErrorAs(err, &persistErr)
	s.Equal([]int64{1}, report.Updated)
}
