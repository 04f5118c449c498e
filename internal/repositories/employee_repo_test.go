package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"taxdesk/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type EmployeeRepoTestSuite struct {
	suite.Suite
	mock       pgxmock.PgxPoolIface
	repo       EmployeeRepository
	employeeID uuid.UUID
	clientID   uuid.UUID
	context    context.Context
}

func (suite *EmployeeRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewEmployeeRepo(mock)
	suite.employeeID = uuid.New()
	suite.clientID = uuid.New()
	suite.context = context.Background()
}

func (suite *EmployeeRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestEmployeeRepoTestSuite(t *testing.T) {
	suite.Run(t, new(EmployeeRepoTestSuite))
}

func (suite *EmployeeRepoTestSuite) TestCreate_Success() {
	employee := &models.Employee{
		ID:              suite.employeeID,
		Email:           "preparer@firm.example.com",
		FirstName:       "Dana",
		LastName:        "Reyes",
		Role:            models.RoleEmployee,
		AssignedClients: []uuid.UUID{},
	}

	suite.mock.ExpectExec(`
		INSERT INTO employees \(id, email, first_name, last_name, role, assigned_clients, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, NOW\(\), NOW\(\)\)
	`).WithArgs(employee.ID, employee.Email, employee.FirstName, employee.LastName, employee.Role, employee.AssignedClients).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, employee)
	assert.NoError(suite.T(), err)
}

func (suite *EmployeeRepoTestSuite) TestGetByID_Success() {
	now := time.Now()

	suite.mock.ExpectQuery(`
		SELECT id, email, first_name, last_name, role, COALESCE\(assigned_clients, '\{\}'\), created_at, updated_at
		FROM employees
		WHERE id = \$1
	`).WithArgs(suite.employeeID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "assigned_clients", "created_at", "updated_at"}).
			AddRow(suite.employeeID, "preparer@firm.example.com", "Dana", "Reyes", models.RoleAdmin, []uuid.UUID{suite.clientID}, now, now))

	result, err := suite.repo.GetByID(suite.context, suite.employeeID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.employeeID, result.ID)
	assert.Equal(suite.T(), models.RoleAdmin, result.Role)
	assert.Equal(suite.T(), []uuid.UUID{suite.clientID}, result.AssignedClients)
}

func (suite *EmployeeRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`
		SELECT id, email, first_name, last_name, role, COALESCE\(assigned_clients, '\{\}'\), created_at, updated_at
		FROM employees
		WHERE id = \$1
	`).WithArgs(suite.employeeID).
		WillReturnError(pgx.ErrNoRows)

	result, err := suite.repo.GetByID(suite.context, suite.employeeID)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), result)
}

func (suite *EmployeeRepoTestSuite) TestUpdate_EmailNotTouched() {
	employee := &models.Employee{
		ID:        suite.employeeID,
		Email:     "preparer@firm.example.com",
		FirstName: "Daniela",
		LastName:  "Reyes",
		Role:      models.RoleAdmin,
	}

	suite.mock.ExpectExec(`
		UPDATE employees
		SET first_name = \$1, last_name = \$2, role = \$3, updated_at = NOW\(\)
		WHERE id = \$4
	`).WithArgs(employee.FirstName, employee.LastName, employee.Role, employee.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, employee)
	assert.NoError(suite.T(), err)
}

func (suite *EmployeeRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs(suite.employeeID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.employeeID)
	assert.NoError(suite.T(), err)
}

func (suite *EmployeeRepoTestSuite) TestList_Success() {
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "assigned_clients", "created_at", "updated_at"}).
		AddRow(uuid.New(), "a@firm.example.com", "Dana", "Reyes", models.RoleCEO, []uuid.UUID{}, now, now).
		AddRow(uuid.New(), "b@firm.example.com", "Lee", "Chen", models.RoleEmployee, []uuid.UUID{suite.clientID}, now, now)

	suite.mock.ExpectQuery(`
		SELECT id, email, first_name, last_name, role, COALESCE\(assigned_clients, '\{\}'\), created_at, updated_at
		FROM employees
		ORDER BY created_at ASC
		LIMIT \$1 OFFSET \$2
	`).WithArgs(50, 0).
		WillReturnRows(rows)

	result, err := suite.repo.List(suite.context, 50, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), result, 2)
	assert.Equal(suite.T(), models.RoleCEO, result[0].Role)
}

func (suite *EmployeeRepoTestSuite) TestCount_Success() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	count, err := suite.repo.Count(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, count)
}

func (suite *EmployeeRepoTestSuite) TestCount_DatabaseError() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM employees`).
		WillReturnError(errors.New("connection refused"))

	count, err := suite.repo.Count(suite.context)
	assert.Error(suite.T(), err)
	assert.Zero(suite.T(), count)
}

func (suite *EmployeeRepoTestSuite) TestAddAssignedClient_Success() {
	suite.mock.ExpectExec(`
		UPDATE employees
		SET assigned_clients = array_append\(COALESCE\(assigned_clients, '\{\}'\), \$2\), updated_at = NOW\(\)
		WHERE id = \$1 AND NOT \(\$2 = ANY\(COALESCE\(assigned_clients, '\{\}'\)\)\)
	`).WithArgs(suite.employeeID, suite.clientID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.AddAssignedClient(suite.context, suite.employeeID, suite.clientID)
	assert.NoError(suite.T(), err)
}

func (suite *EmployeeRepoTestSuite) TestAddAssignedClient_AlreadyAssignedIsNoOp() {
	// The NOT ... ANY guard makes the statement affect zero rows instead of
	// appending a duplicate
	suite.mock.ExpectExec(`
		UPDATE employees
		SET assigned_clients = array_append\(COALESCE\(assigned_clients, '\{\}'\), \$2\), updated_at = NOW\(\)
		WHERE id = \$1 AND NOT \(\$2 = ANY\(COALESCE\(assigned_clients, '\{\}'\)\)\)
	`).WithArgs(suite.employeeID, suite.clientID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := suite.repo.AddAssignedClient(suite.context, suite.employeeID, suite.clientID)
	assert.NoError(suite.T(), err)
}
