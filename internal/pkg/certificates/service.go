package certificates

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

var (
	ErrEnrollmentNotEligible = errors.New("enrollment does not qualify for a certificate")
	ErrCertificateNotFound   = errors.New("certificate not found")
)

// Repository provides the DB operations the certificate service needs.
type Repository interface {
	GetEligibleEnrollment(userID, courseID uint64) (*models.PaidEnrollment, error)
	CreateCertificateIfNotExists(cert *models.Certificate) (bool, *models.Certificate, error)
	GetCertificateByCode(code string) (*models.Certificate, error)
	ListCertificatesByUser(userID uint64) ([]models.Certificate, error)
	MarkCertificateIssued(enrollmentID uint64) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetEligibleEnrollment(userID, courseID uint64) (*models.PaidEnrollment, error) {
	var enrollment models.PaidEnrollment
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("enrolled_at DESC").First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateCertificateIfNotExists inserts unless a certificate for the
// same (user, course) already exists, then reloads the stored row.
func (r *gormRepository) CreateCertificateIfNotExists(cert *models.Certificate) (bool, *models.Certificate, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "course_id"},
		},
		DoNothing: true,
	}).Create(cert)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.Certificate
	if err := r.db.Where("user_id = ? AND course_id = ?", cert.UserID, cert.CourseID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetCertificateByCode(code string) (*models.Certificate, error) {
	var cert models.Certificate
	err := r.db.Where("certificate_code = ?", code).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *gormRepository) ListCertificatesByUser(userID uint64) ([]models.Certificate, error) {
	var certs []models.Certificate
	err := r.db.Where("user_id = ?", userID).Order("issue_date DESC").Find(&certs).Error
	return certs, err
}

func (r *gormRepository) MarkCertificateIssued(enrollmentID uint64) error {
	return r.db.Model(&models.PaidEnrollment{}).Where("id = ?", enrollmentID).
		Update("certificate_issued", true).Error
}

// Service issues and verifies completion certificates.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Issue grants a certificate for a completed course. Repeated calls
// for the same (user, course) return the original certificate; a new
// code is only ever minted once.
func (s *Service) Issue(ctx context.Context, userID, courseID uint64) (*models.Certificate, error) {
	_ = ctx
	enrollment, err := s.repo.GetEligibleEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || !enrollment.GrantsAccess() || !enrollment.Completed {
		return nil, ErrEnrollmentNotEligible
	}

	now := s.now()
	created, cert, err := s.repo.CreateCertificateIfNotExists(&models.Certificate{
		UserID:          userID,
		CourseID:        courseID,
		EnrollmentID:    enrollment.ID,
		CertificateCode: newCode(now),
		IssueDate:       now,
		Verified:        true,
	})
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.repo.MarkCertificateIssued(enrollment.ID); err != nil {
			return nil, err
		}
	}
	return cert, nil
}

// Verify resolves a public certificate code.
func (s *Service) Verify(ctx context.Context, code string) (*models.Certificate, error) {
	_ = ctx
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCertificateNotFound
	}
	cert, err := s.repo.GetCertificateByCode(code)
	if err != nil {
		return nil, err
	}
	if cert == nil || !cert.Verified {
		return nil, ErrCertificateNotFound
	}
	return cert, nil
}

// ListForUser returns the user's certificates, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]models.Certificate, error) {
	_ = ctx
	return s.repo.ListCertificatesByUser(userID)
}

// newCode mints a CERT-<base36 millis>-<random> code. The timestamp
// keeps codes roughly sortable; the random suffix keeps them
// unguessable.
func newCode(now time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is unrecoverable for code minting.
		panic(fmt.Sprintf("certificates: rand.Read: %v", err))
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return "CERT-" + ts + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
