package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxdesk/internal/common"
	"taxdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// TaxReturnServiceTestSuite defines the test suite
type TaxReturnServiceTestSuite struct {
	suite.Suite
	mockReturnRepo *MockTaxReturnRepository
	mockUserRepo   *MockUserRepository
	service        TaxReturnService
	ctx            context.Context
}

func (suite *TaxReturnServiceTestSuite) SetupTest() {
	suite.mockReturnRepo = &MockTaxReturnRepository{}
	suite.mockUserRepo = &MockUserRepository{}
	suite.service = NewTaxReturnService(suite.mockReturnRepo, suite.mockUserRepo)
	suite.ctx = context.Background()
}

func (suite *TaxReturnServiceTestSuite) TearDownTest() {
	suite.mockReturnRepo.AssertExpectations(suite.T())
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func TestTaxReturnServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaxReturnServiceTestSuite))
}

func (suite *TaxReturnServiceTestSuite) TestCreate_Success() {
	clientID := uuid.New()
	filingType := "individual"

	suite.mockUserRepo.On("GetByID", suite.ctx, clientID).Return(&models.UserProfile{ID: clientID}, nil)
	suite.mockReturnRepo.On("Create", suite.ctx, mock.MatchedBy(func(r *models.TaxReturn) bool {
		return r.ClientID == clientID && r.TaxYear == 2023 && r.Status == models.ReturnStatusNotStarted
	})).Return(nil)

	ret, err := suite.service.Create(suite.ctx, &TaxReturnCreate{
		ClientID:   clientID,
		TaxYear:    2023,
		FilingType: &filingType,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ReturnStatusNotStarted, ret.Status)
	assert.Nil(suite.T(), ret.CompletedAt)
}

func (suite *TaxReturnServiceTestSuite) TestCreate_UnknownClient() {
	clientID := uuid.New()
	suite.mockUserRepo.On("GetByID", suite.ctx, clientID).Return(nil, errors.New("no rows"))

	ret, err := suite.service.Create(suite.ctx, &TaxReturnCreate{ClientID: clientID, TaxYear: 2023})
	assert.Nil(suite.T(), ret)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	suite.mockReturnRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *TaxReturnServiceTestSuite) TestCreate_BadTaxYear() {
	ret, err := suite.service.Create(suite.ctx, &TaxReturnCreate{ClientID: uuid.New(), TaxYear: 1899})
	assert.Nil(suite.T(), ret)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything)
}

func (suite *TaxReturnServiceTestSuite) TestUpdate_CompletionStampsTimestamp() {
	id := uuid.New()
	existing := &models.TaxReturn{ID: id, ClientID: uuid.New(), TaxYear: 2023, Status: models.ReturnStatusInProgress}
	completed := models.ReturnStatusCompleted

	suite.mockReturnRepo.On("GetByID", suite.ctx, id).Return(existing, nil)
	suite.mockReturnRepo.On("Update", suite.ctx, mock.MatchedBy(func(r *models.TaxReturn) bool {
		return r.Status == models.ReturnStatusCompleted && r.CompletedAt != nil
	})).Return(nil)

	ret, err := suite.service.Update(suite.ctx, id, &TaxReturnUpdate{Status: &completed})
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), ret.CompletedAt)
}

func (suite *TaxReturnServiceTestSuite) TestUpdate_ReopeningClearsTimestamp() {
	id := uuid.New()
	now := time.Now()
	existing := &models.TaxReturn{ID: id, ClientID: uuid.New(), TaxYear: 2023, Status: models.ReturnStatusCompleted, CompletedAt: &now}
	inProgress := models.ReturnStatusInProgress

	suite.mockReturnRepo.On("GetByID", suite.ctx, id).Return(existing, nil)
	suite.mockReturnRepo.On("Update", suite.ctx, mock.MatchedBy(func(r *models.TaxReturn) bool {
		return r.Status == models.ReturnStatusInProgress && r.CompletedAt == nil
	})).Return(nil)

	ret, err := suite.service.Update(suite.ctx, id, &TaxReturnUpdate{Status: &inProgress})
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), ret.CompletedAt)
}

func (suite *TaxReturnServiceTestSuite) TestUpdate_InvalidStatus() {
	id := uuid.New()
	existing := &models.TaxReturn{ID: id, ClientID: uuid.New(), TaxYear: 2023, Status: models.ReturnStatusNotStarted}
	bogus := "shredded"

	suite.mockReturnRepo.On("GetByID", suite.ctx, id).Return(existing, nil)

	ret, err := suite.service.Update(suite.ctx, id, &TaxReturnUpdate{Status: &bogus})
	assert.Nil(suite.T(), ret)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	suite.mockReturnRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *TaxReturnServiceTestSuite) TestUpdate_FinancialFields() {
	id := uuid.New()
	existing := &models.TaxReturn{ID: id, ClientID: uuid.New(), TaxYear: 2023, Status: models.ReturnStatusInProgress}
	income := 85000.0
	tax := 12400.50

	suite.mockReturnRepo.On("GetByID", suite.ctx, id).Return(existing, nil)
	suite.mockReturnRepo.On("Update", suite.ctx, mock.MatchedBy(func(r *models.TaxReturn) bool {
		return r.TotalIncome != nil && *r.TotalIncome == income &&
			r.TotalTax != nil && *r.TotalTax == tax &&
			r.Status == models.ReturnStatusInProgress
	})).Return(nil)

	ret, err := suite.service.Update(suite.ctx, id, &TaxReturnUpdate{TotalIncome: &income, TotalTax: &tax})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), income, *ret.TotalIncome)
}

func (suite *TaxReturnServiceTestSuite) TestListForClient() {
	clientID := uuid.New()
	returns := []*models.TaxReturn{{ID: uuid.New(), ClientID: clientID, TaxYear: 2023}}
	suite.mockReturnRepo.On("ListByClient", suite.ctx, clientID).Return(returns, nil)

	got, err := suite.service.ListForClient(suite.ctx, clientID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), got, 1)
}
