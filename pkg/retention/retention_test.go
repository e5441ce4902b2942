package retention

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]File), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, file File) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockStore) Describe() string {
	return "mock:folder"
}

// newestFirst builds n files named f0..f(n-1), f0 being the newest
func newestFirst(n int) []File {
	base := time.Date(2025, 1, 31, 3, 0, 0, 0, time.UTC)
	files := make([]File, n)
	for i := range files {
		files[i] = File{
			ID:          fmt.Sprintf("id-%d", i),
			Name:        fmt.Sprintf("f%d", i),
			CreatedTime: base.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return files
}

func TestPartition(t *testing.T) {
	for n := 0; n <= 20; n++ {
		files := newestFirst(n)
		plan := Partition(files, DefaultKeep)

		if n <= DefaultKeep {
			assert.Empty(t, plan.Deleted, "n=%d", n)
			assert.Equal(t, files, plan.Retained, "n=%d", n)
			continue
		}

		assert.Len(t, plan.Deleted, n-DefaultKeep, "n=%d", n)
		assert.Equal(t, files[:DefaultKeep], plan.Retained, "n=%d", n)
		assert.Equal(t, files[DefaultKeep:], plan.Deleted, "n=%d", n)
	}
}

func TestPartition_NegativeKeep(t *testing.T) {
	files := newestFirst(3)
	plan := Partition(files, -1)
	assert.Empty(t, plan.Retained)
	assert.Equal(t, files, plan.Deleted)
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, Options{Keep: 7})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRunner(&MockStore{}, Options{Keep: -1})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewRunner(&MockStore{}, Options{Keep: 7, Policy: "sometimes"})
	assert.ErrorIs(t, err, ErrConfiguration)

	runner, err := NewRunner(&MockStore{}, Options{Keep: 7})
	require.NoError(t, err)
	assert.Equal(t, HaltOnError, runner.opts.Policy)
	assert.NotNil(t, runner.opts.Out)
}

// RunnerTestSuite covers the list → partition → delete flow
type RunnerTestSuite struct {
	suite.Suite
	store *MockStore
	out   *bytes.Buffer
	ctx   context.Context
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.store = &MockStore{}
	suite.out = &bytes.Buffer{}
	suite.ctx = context.Background()
}

func (suite *RunnerTestSuite) newRunner(opts Options) *Runner {
	opts.Out = suite.out
	runner, err := NewRunner(suite.store, opts)
	suite.Require().NoError(err)
	return runner
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

// exactly seven files, nothing deleted
func (suite *RunnerTestSuite) TestRun_SevenFiles() {
	suite.store.On("List", suite.ctx).Return(newestFirst(7), nil)

	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.NoError(err)
	suite.Equal(7, result.Listed)
	suite.Len(result.Retained, 7)
	suite.Empty(result.Deleted)
	suite.Empty(suite.out.String())

	suite.store.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
	suite.store.AssertExpectations(suite.T())
}

// ten files, f7..f9 deleted in order
func (suite *RunnerTestSuite) TestRun_TenFiles() {
	files := newestFirst(10)
	suite.store.On("List", suite.ctx).Return(files, nil)

	var order []string
	suite.store.On("Delete", suite.ctx, mock.AnythingOfType("retention.File")).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(File).Name)
		}).
		Return(nil)

	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.NoError(err)
	suite.Equal([]string{"f7", "f8", "f9"}, order)
	suite.Equal(files[7:], result.Deleted)
	suite.Equal(files[:7], result.Retained)
	suite.Equal(
		"🗑️ Deleted old backup: f7\n🗑️ Deleted old backup: f8\n🗑️ Deleted old backup: f9\n",
		suite.out.String(),
	)

	suite.store.AssertNumberOfCalls(suite.T(), "Delete", 3)
}

// empty folder
func (suite *RunnerTestSuite) TestRun_EmptyFolder() {
	suite.store.On("List", suite.ctx).Return([]File{}, nil)

	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.NoError(err)
	suite.Equal(0, result.Listed)
	suite.Empty(result.Deleted)
	suite.store.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

// second deletion fails, third never attempted
func (suite *RunnerTestSuite) TestRun_HaltOnDeleteFailure() {
	files := newestFirst(10)
	suite.store.On("List", suite.ctx).Return(files, nil)
	suite.store.On("Delete", suite.ctx, files[7]).Return(nil).Once()
	suite.store.On("Delete", suite.ctx, files[8]).Return(errors.New("connection reset by peer")).Once()

	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.Error(err)
	suite.ErrorIs(err, ErrRequest)
	suite.Contains(err.Error(), "connection reset by peer")
	suite.Equal([]File{files[7]}, result.Deleted)
	suite.Len(result.Failed, 1)
	suite.Equal(files[8], result.Failed[0].File)
	suite.Equal("🗑️ Deleted old backup: f7\n", suite.out.String())

	suite.store.AssertNotCalled(suite.T(), "Delete", suite.ctx, files[9])
	suite.store.AssertExpectations(suite.T())
}

func (suite *RunnerTestSuite) TestRun_ContinueOnDeleteFailure() {
	files := newestFirst(10)
	suite.store.On("List", suite.ctx).Return(files, nil)
	suite.store.On("Delete", suite.ctx, files[7]).Return(nil)
	suite.store.On("Delete", suite.ctx, files[8]).Return(errors.New("quota exceeded"))
	suite.store.On("Delete", suite.ctx, files[9]).Return(nil)

	result, err := suite.newRunner(Options{Keep: DefaultKeep, Policy: ContinueOnError}).Run(suite.ctx)
	suite.Error(err)
	suite.ErrorIs(err, ErrRequest)
	suite.Equal([]File{files[7], files[9]}, result.Deleted)
	suite.Len(result.Failed, 1)
	suite.Equal("🗑️ Deleted old backup: f7\n🗑️ Deleted old backup: f9\n", suite.out.String())
	suite.store.AssertExpectations(suite.T())
}

func (suite *RunnerTestSuite) TestRun_ListFailure() {
	suite.store.On("List", suite.ctx).Return(nil, errors.New("malformed query"))

	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.Nil(result)
	suite.ErrorIs(err, ErrRequest)
	suite.Contains(err.Error(), "failed to list backups in mock:folder")
	suite.store.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *RunnerTestSuite) TestRun_ListAuthFailureKeepsKind() {
	suite.store.On("List", suite.ctx).Return(nil, fmt.Errorf("%w: token revoked", ErrAuthentication))

	_, err := suite.newRunner(Options{Keep: DefaultKeep}).Run(suite.ctx)
	suite.ErrorIs(err, ErrAuthentication)
	suite.NotErrorIs(err, ErrRequest)
}

func (suite *RunnerTestSuite) TestRun_DryRun() {
	files := newestFirst(9)
	suite.store.On("List", suite.ctx).Return(files, nil)

	result, err := suite.newRunner(Options{Keep: DefaultKeep, DryRun: true}).Run(suite.ctx)
	suite.NoError(err)
	suite.True(result.DryRun)
	suite.Equal(files[7:], result.Deleted)
	suite.Equal("🔍 Would delete old backup: f7\n🔍 Would delete old backup: f8\n", suite.out.String())
	suite.store.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *RunnerTestSuite) TestApply_CanceledContext() {
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	plan := Partition(newestFirst(8), DefaultKeep)
	result, err := suite.newRunner(Options{Keep: DefaultKeep}).Apply(ctx, plan)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(result.Deleted)
	suite.store.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
}

func (suite *RunnerTestSuite) TestRun_CustomKeep() {
	files := newestFirst(5)
	suite.store.On("List", suite.ctx).Return(files, nil)
	suite.store.On("Delete", suite.ctx, mock.AnythingOfType("retention.File")).Return(nil)

	result, err := suite.newRunner(Options{Keep: 2}).Run(suite.ctx)
	suite.NoError(err)
	suite.Equal(files[:2], result.Retained)
	suite.Equal(files[2:], result.Deleted)
	suite.store.AssertNumberOfCalls(suite.T(), "Delete", 3)
}

func TestAsRequestError(t *testing.T) {
	plain := errors.New("boom")
	assert.ErrorIs(t, asRequestError(plain), ErrRequest)
	assert.ErrorIs(t, asRequestError(plain), plain)

	auth := fmt.Errorf("%w: nope", ErrAuthentication)
	assert.Equal(t, auth, asRequestError(auth))

	assert.Equal(t, context.Canceled, asRequestError(context.Canceled))
}
