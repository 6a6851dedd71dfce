package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/JFernandezWeb/LumenLMS/app/models"
)

type fakeRepo struct {
	enrollment *models.PaidEnrollment
	certs      map[string]*models.Certificate
	nextID     uint64
	marked     []uint64
}

func newFakeRepo(enrollment *models.PaidEnrollment) *fakeRepo {
	return &fakeRepo{
		enrollment: enrollment,
		certs:      make(map[string]*models.Certificate),
		nextID:     1,
	}
}

func certKey(userID, courseID uint64) string {
	return fmt.Sprintf("%d/%d", userID, courseID)
}

func (f *fakeRepo) GetEligibleEnrollment(userID, courseID uint64) (*models.PaidEnrollment, error) {
	return f.enrollment, nil
}

func (f *fakeRepo) CreateCertificateIfNotExists(cert *models.Certificate) (bool, *models.Certificate, error) {
	key := certKey(cert.UserID, cert.CourseID)
	if existing, ok := f.certs[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	cert.ID = f.nextID
	f.nextID++
	copied := *cert
	f.certs[key] = &copied
	result := *cert
	return true, &result, nil
}

func (f *fakeRepo) GetCertificateByCode(code string) (*models.Certificate, error) {
	for _, cert := range f.certs {
		if cert.CertificateCode == code {
			copied := *cert
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListCertificatesByUser(userID uint64) ([]models.Certificate, error) {
	var out []models.Certificate
	for _, cert := range f.certs {
		if cert.UserID == userID {
			out = append(out, *cert)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkCertificateIssued(enrollmentID uint64) error {
	f.marked = append(f.marked, enrollmentID)
	return nil
}

func completedEnrollment() *models.PaidEnrollment {
	return &models.PaidEnrollment{
		ID:            3,
		UserID:        7,
		CourseID:      12,
		PaymentStatus: models.PaymentStatusCompleted,
		Completed:     true,
	}
}

func TestIssueIsIdempotent(t *testing.T) {
	repo := newFakeRepo(completedEnrollment())
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.Issue(ctx, 7, 12)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := svc.Issue(ctx, 7, 12)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first.CertificateCode != second.CertificateCode {
		t.Fatalf("reissue minted a new code: %s vs %s", first.CertificateCode, second.CertificateCode)
	}
	if len(repo.marked) != 1 {
		t.Fatalf("enrollment marked %d times, want 1", len(repo.marked))
	}
}

func TestIssueRequiresCompletedAccess(t *testing.T) {
	cases := []struct {
		name       string
		enrollment *models.PaidEnrollment
	}{
		{"no enrollment", nil},
		{"pending payment", &models.PaidEnrollment{PaymentStatus: models.PaymentStatusPending, Completed: true}},
		{"revoked access", &models.PaidEnrollment{PaymentStatus: models.PaymentStatusCompleted, AccessRevoked: true, Completed: true}},
		{"course not completed", &models.PaidEnrollment{PaymentStatus: models.PaymentStatusCompleted, Completed: false}},
	}
	for _, tc := range cases {
		svc := NewService(newFakeRepo(tc.enrollment))
		if _, err := svc.Issue(context.Background(), 7, 12); !errors.Is(err, ErrEnrollmentNotEligible) {
			t.Errorf("%s: expected ErrEnrollmentNotEligible, got %v", tc.name, err)
		}
	}
}

func TestVerify(t *testing.T) {
	repo := newFakeRepo(completedEnrollment())
	svc := NewService(repo)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, 7, 12)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	found, err := svc.Verify(ctx, cert.CertificateCode)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if found.ID != cert.ID {
		t.Fatal("verify returned a different certificate")
	}

	if _, err := svc.Verify(ctx, "CERT-NOPE-0000"); !errors.Is(err, ErrCertificateNotFound) {
		t.Fatalf("unknown code: expected ErrCertificateNotFound, got %v", err)
	}
	if _, err := svc.Verify(ctx, ""); !errors.Is(err, ErrCertificateNotFound) {
		t.Fatalf("empty code: expected ErrCertificateNotFound, got %v", err)
	}
}

func TestNewCodeShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	code := newCode(now)
	if !strings.HasPrefix(code, "CERT-") {
		t.Fatalf("code %q missing prefix", code)
	}
	parts := strings.Split(code, "-")
	if len(parts) != 3 || parts[1] == "" || len(parts[2]) != 10 {
		t.Fatalf("unexpected code shape: %q", code)
	}
	if code != strings.ToUpper(code) {
		t.Fatalf("code %q not uppercase", code)
	}
}
