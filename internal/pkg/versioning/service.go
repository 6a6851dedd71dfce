package versioning

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JFernandezWeb/LumenLMS/internal/pkg/dbgateway"
	"github.com/gofiber/fiber/v2/log"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// Service stores and retrieves immutable content snapshots per entity
// type. It is the single writer of version-history rows.
type Service struct {
	gw  dbgateway.Gateway
	now func() time.Time
}

func NewService(gw dbgateway.Gateway) *Service {
	return &Service{gw: gw, now: time.Now}
}

// CreateVersion appends a snapshot for the entity. Payload keys outside
// the entity type's allow-list are dropped, not rejected; an empty
// filtered payload still produces a metadata-only version (a pure
// status checkpoint) but is logged for diagnosis.
func (s *Service) CreateVersion(ctx context.Context, entityType EntityType, entityID uint64, payload map[string]string, status string, authorID *uint64) (uint64, error) {
	spec, err := specFor(entityType)
	if err != nil {
		return 0, err
	}
	if !validStatus(status) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	filtered := make(map[string]string, len(payload))
	for _, col := range spec.columns {
		if v, ok := payload[col]; ok {
			filtered[col] = v
		}
	}
	if len(filtered) == 0 {
		log.Warnf("[Versioning] no valid payload fields for %s id=%d, creating metadata-only version", entityType, entityID)
	}

	columns := []string{spec.foreignKey, "status", "created_at"}
	args := []interface{}{entityID, status, s.now().UTC().Format(mysqlTimeLayout)}
	if authorID != nil {
		columns = append(columns, "created_by")
		args = append(args, *authorID)
	}
	for _, col := range spec.columns {
		if v, ok := filtered[col]; ok {
			columns = append(columns, col)
			args = append(args, v)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", spec.table, strings.Join(columns, ", "), placeholders)

	res, err := s.gw.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("create %s version: %w", entityType, err)
	}
	return uint64(res.LastInsertID), nil
}

// GetVersions returns all snapshots for an entity, newest first.
func (s *Service) GetVersions(ctx context.Context, entityType EntityType, entityID uint64) ([]VersionRecord, error) {
	spec, err := specFor(entityType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY created_at DESC, id DESC", spec.table, spec.foreignKey)
	rows, err := s.gw.FetchAll(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]VersionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordFromRow(spec, row))
	}
	return out, nil
}

// GetVersion returns a single snapshot by id.
func (s *Service) GetVersion(ctx context.Context, entityType EntityType, versionID uint64) (*VersionRecord, error) {
	spec, err := specFor(entityType)
	if err != nil {
		return nil, err
	}
	row, err := s.gw.FetchOne(ctx, fmt.Sprintf("SELECT * FROM %s WHERE id = ?", spec.table), versionID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrVersionNotFound
	}
	rec := recordFromRow(spec, row)
	return &rec, nil
}

// GetLatestVersion returns the newest snapshot regardless of status.
func (s *Service) GetLatestVersion(ctx context.Context, entityType EntityType, entityID uint64) (*VersionRecord, error) {
	spec, err := specFor(entityType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY created_at DESC, id DESC LIMIT 1", spec.table, spec.foreignKey)
	row, err := s.gw.FetchOne(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrVersionNotFound
	}
	rec := recordFromRow(spec, row)
	return &rec, nil
}

// RestoreVersion appends a new draft carrying the target version's
// payload. The target itself and the live row stay untouched; the
// editor reviews the restored draft and publishes explicitly.
func (s *Service) RestoreVersion(ctx context.Context, entityType EntityType, entityID, versionID uint64, authorID *uint64) (uint64, error) {
	version, err := s.GetVersion(ctx, entityType, versionID)
	if err != nil {
		return 0, err
	}
	return s.CreateVersion(ctx, entityType, entityID, version.Payload, "draft", authorID)
}

// DeleteVersion hard-deletes one snapshot. No side effects on the
// live entity.
func (s *Service) DeleteVersion(ctx context.Context, entityType EntityType, versionID uint64) error {
	spec, err := specFor(entityType)
	if err != nil {
		return err
	}
	_, err = s.gw.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", spec.table), versionID)
	return err
}

// DeleteDraftVersions removes every draft-status snapshot for the
// entity and reports how many were dropped. Published and archived
// versions survive.
func (s *Service) DeleteDraftVersions(ctx context.Context, entityType EntityType, entityID uint64) (int64, error) {
	spec, err := specFor(entityType)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND status = 'draft'", spec.table, spec.foreignKey)
	res, err := s.gw.Exec(ctx, query, entityID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func recordFromRow(spec typeSpec, row map[string]string) VersionRecord {
	rec := VersionRecord{
		Status:        row["status"],
		ChangeSummary: row["change_summary"],
		Payload:       make(map[string]string),
	}
	rec.ID, _ = strconv.ParseUint(row["id"], 10, 64)
	rec.EntityID, _ = strconv.ParseUint(row[spec.foreignKey], 10, 64)
	if v, ok := row["created_by"]; ok && v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			rec.CreatedBy = &id
		}
	}
	if v, ok := row["created_at"]; ok {
		if t, err := time.Parse(mysqlTimeLayout, v); err == nil {
			rec.CreatedAt = t
		} else if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.CreatedAt = t
		}
	}
	for _, col := range spec.columns {
		if v, ok := row[col]; ok {
			rec.Payload[col] = v
		}
	}
	return rec
}
