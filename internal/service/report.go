package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/repo"
)

const (
	DefaultReportMonths = 3
	DefaultTopCustomers = 5
	DefaultTopBooks     = 10
	DashboardListSize   = 5
	maxReportMonths     = 120
	maxReportTop        = 100
	reportDateLayout    = "2006-01-02"
)

type ReportService struct {
	Repo *repo.ReportRepo
	Now  func() time.Time
}

type MonthlySales struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	repo.SalesTotal
}

type DailySales struct {
	Date string `json:"date"`
	repo.SalesTotal
}

type TopCustomersReport struct {
	Months    int                `json:"months"`
	TopN      int                `json:"topN"`
	Customers []repo.TopCustomer `json:"customers"`
}

type TopBooksReport struct {
	Months int            `json:"months"`
	TopN   int            `json:"topN"`
	Books  []repo.TopBook `json:"books"`
}

func (s *ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// PreviousMonthSales covers the calendar month before the current one.
func (s *ReportService) PreviousMonthSales(ctx context.Context) (*MonthlySales, error) {
	now := s.now()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := thisMonth.AddDate(0, -1, 0)

	total, err := s.Repo.SalesBetween(ctx, prev, thisMonth)
	if err != nil {
		return nil, err
	}
	return &MonthlySales{Year: prev.Year(), Month: int(prev.Month()), SalesTotal: total}, nil
}

func (s *ReportService) SalesByDate(ctx context.Context, date string) (*DailySales, error) {
	if date == "" {
		return nil, fail(ErrValidation, "Date parameter is required")
	}
	day, err := time.Parse(reportDateLayout, date)
	if err != nil {
		return nil, fail(ErrValidation, "Invalid date, expected YYYY-MM-DD")
	}

	total, err := s.Repo.SalesBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return &DailySales{Date: day.Format(reportDateLayout), SalesTotal: total}, nil
}

func checkWindow(months, top int) error {
	if months < 1 || months > maxReportMonths {
		return fail(ErrValidation, "months must be between 1 and 120")
	}
	if top < 1 || top > maxReportTop {
		return fail(ErrValidation, "top must be between 1 and 100")
	}
	return nil
}

func (s *ReportService) TopCustomers(ctx context.Context, months, top int) (*TopCustomersReport, error) {
	if err := checkWindow(months, top); err != nil {
		return nil, err
	}
	rows, err := s.Repo.TopCustomers(ctx, s.now().AddDate(0, -months, 0), top)
	if err != nil {
		return nil, err
	}
	return &TopCustomersReport{Months: months, TopN: top, Customers: rows}, nil
}

func (s *ReportService) TopBooks(ctx context.Context, months, top int) (*TopBooksReport, error) {
	if err := checkWindow(months, top); err != nil {
		return nil, err
	}
	rows, err := s.Repo.TopBooks(ctx, s.now().AddDate(0, -months, 0), top)
	if err != nil {
		return nil, err
	}
	return &TopBooksReport{Months: months, TopN: top, Books: rows}, nil
}

func (s *ReportService) BookReorders(ctx context.Context, isbn string) (*repo.BookReorders, error) {
	r, err := s.Repo.BookReorders(ctx, isbn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Book not found")
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReportService) Dashboard(ctx context.Context) (*repo.Dashboard, error) {
	return s.Repo.Dashboard(ctx, DashboardListSize)
}
