package services

import (
	"context"
	"fmt"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const directoryPageSize = 500

// EmployeeEntry is an employee with assigned-client names resolved for
// display. The join happens here, over already-fetched collections; rows
// never trigger their own lookups.
type EmployeeEntry struct {
	*models.Employee
	AssignedClientNames []string `json:"assigned_client_names"`
}

// ClientEntry is a client profile with its document count.
type ClientEntry struct {
	*models.UserProfile
	DocumentCount int `json:"document_count"`
}

// DashboardStats are the firm-wide admin counters.
type DashboardStats struct {
	TotalClients   int `json:"total_clients"`
	TotalDocuments int `json:"total_documents"`
	TotalReturns   int `json:"total_returns"`
	PendingReturns int `json:"pending_returns"`
}

// DirectoryService is the read-only composition layer: listing pages fetch
// their independent collections concurrently and fail as a unit, so a page
// never renders half its data.
type DirectoryService interface {
	EmployeeDirectory(ctx context.Context) ([]*EmployeeEntry, error)
	ClientOverview(ctx context.Context) ([]*ClientEntry, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type directoryService struct {
	users      repositories.UserRepository
	employees  repositories.EmployeeRepository
	documents  repositories.DocumentRepository
	taxReturns repositories.TaxReturnRepository
}

func NewDirectoryService(users repositories.UserRepository, employees repositories.EmployeeRepository, documents repositories.DocumentRepository, taxReturns repositories.TaxReturnRepository) DirectoryService {
	return &directoryService{
		users:      users,
		employees:  employees,
		documents:  documents,
		taxReturns: taxReturns,
	}
}

func (s *directoryService) EmployeeDirectory(ctx context.Context) ([]*EmployeeEntry, error) {
	var (
		employees []*models.Employee
		clients   []*models.UserProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.employees.List(gctx, directoryPageSize, 0)
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = s.users.List(gctx, directoryPageSize, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.DisplayName()
	}

	entries := make([]*EmployeeEntry, 0, len(employees))
	for _, e := range employees {
		entry := &EmployeeEntry{Employee: e, AssignedClientNames: []string{}}
		for _, clientID := range e.AssignedClients {
			if name, ok := names[clientID]; ok {
				entry.AssignedClientNames = append(entry.AssignedClientNames, name)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *directoryService) ClientOverview(ctx context.Context) ([]*ClientEntry, error) {
	var (
		clients []*models.UserProfile
		counts  map[uuid.UUID]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.users.List(gctx, directoryPageSize, 0)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.documents.CountsByClient(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}

	entries := make([]*ClientEntry, 0, len(clients))
	for _, c := range clients {
		entries = append(entries, &ClientEntry{UserProfile: c, DocumentCount: counts[c.ID]})
	}
	return entries, nil
}

func (s *directoryService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalClients, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalDocuments, err = s.documents.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalReturns, err = s.taxReturns.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.PendingReturns, err = s.taxReturns.CountByStatus(gctx, models.ReturnStatusInProgress)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return stats, nil
}
