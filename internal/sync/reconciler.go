package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dcastano/asistencia/internal/store"
)

// Direction identifies which store is the source of truth for a run.
type Direction string

const (
	// DirectionPush reconciles local → remote.
	DirectionPush Direction = "push"

	// DirectionPull reconciles remote → local.
	DirectionPull Direction = "pull"
)

// Stage names shared by both directions.
const (
	StageInit     = "Iniciando"
	StageVerify   = "Verificando conexiones"
	StageConnect  = "Conectando motores"
	StageFinalize = "Finalizando"
)

// Per-direction labels for the entity stages. The push run reports
// "Sincronizando", the pull run "Trayendo", matching the progress
// strings the admin frontend displays.
type stageLabels struct {
	users      string
	attendance string
	offices    string
}

var (
	pushLabels = stageLabels{
		users:      "Sincronizando Usuarios",
		attendance: "Sincronizando Asistencia",
		offices:    "Sincronizando Oficinas",
	}
	pullLabels = stageLabels{
		users:      "Trayendo Usuarios",
		attendance: "Trayendo Asistencia",
		offices:    "Trayendo Oficinas",
	}
)

// Report summarizes a completed run.
type Report struct {
	Direction Direction `json:"direction"`

	// Users and Offices count every source row processed. Attendance
	// counts only newly inserted rows; existing rows are skipped
	// silently because attendance records are immutable once present.
	Users      int `json:"users"`
	Attendance int `json:"attendance"`
	Offices    int `json:"offices"`

	// SkippedAttendance counts source rows whose owner has no matching
	// user in the target store. They are skipped, not errored.
	SkippedAttendance int `json:"skipped_attendance"`

	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Message renders the operator-facing success summary.
func (r *Report) Message() string {
	verb := "Sincronización (Push) exitosa"
	if r.Direction == DirectionPull {
		verb = "Datos traídos (Pull) con éxito"
	}
	return fmt.Sprintf("%s. Procesados: %d usuarios, %d nuevos registros de asistencia, %d oficinas.",
		verb, r.Users, r.Attendance, r.Offices)
}

// EventSink receives run outcomes for broadcast. Implementations must
// not block; the reconciler calls them synchronously.
type EventSink interface {
	SyncCompleted(report *Report)
	SyncFailed(direction Direction, stage string, err error)
}

// Reconciler executes push and pull runs against the endpoints named in
// the system configuration held by the primary store.
type Reconciler struct {
	primary *store.Store
	logger  *log.Logger
	events  EventSink

	mu sync.Mutex
}

// New creates a Reconciler. The primary store is where system_config
// lives; it is read for endpoint URLs and written for last_sync_at, and
// is never itself a reconciliation endpoint unless the configuration
// points at its URL.
//
// If logger is nil, a default logger writing to stderr is used.
// events may be nil.
func New(primary *store.Store, logger *log.Logger, events EventSink) *Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Reconciler{
		primary: primary,
		logger:  logger,
		events:  events,
	}
}

// Push reconciles local → remote: the remote store is updated to match
// the local store. Returns ErrSyncInProgress if another run is active.
func (r *Reconciler) Push(ctx context.Context) (*Report, error) {
	return r.run(ctx, DirectionPush)
}

// Pull reconciles remote → local: the local store is updated to match
// the remote store. Returns ErrSyncInProgress if another run is active.
func (r *Reconciler) Pull(ctx context.Context) (*Report, error) {
	return r.run(ctx, DirectionPull)
}

func (r *Reconciler) run(ctx context.Context, direction Direction) (*Report, error) {
	if !r.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	start := time.Now()
	report, err := r.reconcile(ctx, direction)
	if err != nil {
		r.logger.Printf("%s failed at stage [%s]: %v", direction, Stage(err), err)
		if r.events != nil {
			r.events.SyncFailed(direction, Stage(err), err)
		}
		return nil, err
	}

	report.Duration = time.Since(start)
	report.CompletedAt = time.Now().UTC()
	r.logger.Printf("%s complete in %v: users=%d attendance=%d (skipped=%d) offices=%d",
		direction, report.Duration.Round(time.Millisecond),
		report.Users, report.Attendance, report.SkippedAttendance, report.Offices)
	if r.events != nil {
		r.events.SyncCompleted(report)
	}
	return report, nil
}

// reconcile runs the staged algorithm. Any error is wrapped in a
// StageError naming the stage it arose in; stages after a failure do not
// run, and rows written by earlier stages are kept.
func (r *Reconciler) reconcile(ctx context.Context, direction Direction) (*Report, error) {
	report := &Report{Direction: direction}

	// Preconditions
	cfg, err := r.primary.GetSystemConfig(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageInit, Err: err}
	}
	if cfg.LocalDBURL == "" || cfg.RemoteDBURL == "" {
		return nil, &StageError{Stage: StageInit, Err: ErrConfigIncomplete}
	}

	// Connectivity: fail fast before any writes.
	if res := store.Probe(ctx, cfg.LocalDBURL); !res.Reachable {
		return nil, &StageError{Stage: StageVerify, Err: &ConnectionError{Endpoint: EndpointLocal, Reason: res.Reason}}
	}
	if res := store.Probe(ctx, cfg.RemoteDBURL); !res.Reachable {
		return nil, &StageError{Stage: StageVerify, Err: &ConnectionError{Endpoint: EndpointRemote, Reason: res.Reason}}
	}

	sourceURL, targetURL := cfg.LocalDBURL, cfg.RemoteDBURL
	labels := pushLabels
	if direction == DirectionPull {
		sourceURL, targetURL = targetURL, sourceURL
		labels = pullLabels
	}

	// Open short-lived endpoint stores, independent of the router's
	// active client: sync never disturbs in-flight request traffic.
	source, err := store.Open(sourceURL)
	if err != nil {
		return nil, &StageError{Stage: StageConnect, Err: err}
	}
	defer source.Close()

	target, err := store.Open(targetURL)
	if err != nil {
		return nil, &StageError{Stage: StageConnect, Err: err}
	}
	defer target.Close()

	// A freshly provisioned target may be empty.
	if err := target.InitSchema(ctx); err != nil {
		return nil, &StageError{Stage: StageConnect, Err: err}
	}

	if report.Users, err = reconcileUsers(ctx, source, target); err != nil {
		return nil, &StageError{Stage: labels.users, Err: err}
	}
	if report.Attendance, report.SkippedAttendance, err = reconcileAttendance(ctx, source, target); err != nil {
		return nil, &StageError{Stage: labels.attendance, Err: err}
	}
	if report.Offices, err = reconcileOffices(ctx, source, target); err != nil {
		return nil, &StageError{Stage: labels.offices, Err: err}
	}

	// last_sync_at lands on the primary config store regardless of
	// direction.
	if err := r.primary.SetLastSync(ctx, time.Now()); err != nil {
		return nil, &StageError{Stage: StageFinalize, Err: err}
	}

	return report, nil
}

// reconcileUsers makes every source user present in the target, matched
// by email. Absent users are inserted with all fields; present users get
// their mutable field set overwritten (name, password_hash, role, code,
// theme, language) while the target's id and created_at stay untouched.
func reconcileUsers(ctx context.Context, source, target *store.Store) (int, error) {
	sourceUsers, err := source.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	targetUsers, err := target.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	// Index the target by natural key once; repeated per-row lookups
	// would go quadratic on larger datasets.
	byEmail := make(map[string]*store.User, len(targetUsers))
	for _, u := range targetUsers {
		byEmail[u.Email] = u
	}

	count := 0
	for _, su := range sourceUsers {
		if _, exists := byEmail[su.Email]; exists {
			if err := target.UpdateUserByEmail(ctx, su); err != nil {
				return count, err
			}
		} else {
			nu := &store.User{
				Name:         su.Name,
				Email:        su.Email,
				PasswordHash: su.PasswordHash,
				Role:         su.Role,
				Code:         su.Code,
				Theme:        su.Theme,
				Language:     su.Language,
				CreatedAt:    su.CreatedAt,
			}
			if err := target.CreateUser(ctx, nu); err != nil {
				return count, err
			}
			byEmail[su.Email] = nu
		}
		count++
	}
	return count, nil
}

// attendanceKey is the cross-store identity of an attendance row,
// expressed in target-store terms.
type attendanceKey struct {
	userID    int64
	timestamp time.Time
	typ       string
}

// reconcileAttendance inserts source attendance rows missing from the
// target. Rows whose owner email has no target user are skipped (an
// attendance record cannot exist without its owner); rows already
// present under the (target user id, timestamp, type) triple are left
// alone, never updated.
func reconcileAttendance(ctx context.Context, source, target *store.Store) (inserted, skipped int, err error) {
	sourceRows, err := source.ListAttendanceWithOwner(ctx)
	if err != nil {
		return 0, 0, err
	}
	targetUsers, err := target.ListUsers(ctx)
	if err != nil {
		return 0, 0, err
	}
	targetRows, err := target.ListAttendanceWithOwner(ctx)
	if err != nil {
		return 0, 0, err
	}

	idByEmail := make(map[string]int64, len(targetUsers))
	for _, u := range targetUsers {
		idByEmail[u.Email] = u.ID
	}
	existing := make(map[attendanceKey]struct{}, len(targetRows))
	for _, a := range targetRows {
		existing[attendanceKey{a.UserID, a.Timestamp.UTC(), a.Type}] = struct{}{}
	}

	for _, row := range sourceRows {
		targetUserID, ok := idByEmail[row.UserEmail]
		if !ok {
			skipped++
			continue
		}

		key := attendanceKey{targetUserID, row.Timestamp.UTC(), row.Type}
		if _, dup := existing[key]; dup {
			continue
		}

		insert := &store.Attendance{
			UserID:     targetUserID,
			Type:       row.Type,
			Timestamp:  row.Timestamp,
			Status:     row.Status,
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			IsVerified: row.IsVerified,
		}
		if err := target.InsertAttendance(ctx, insert); err != nil {
			return inserted, skipped, err
		}
		existing[key] = struct{}{}
		inserted++
	}
	return inserted, skipped, nil
}

// reconcileOffices upserts every source office into the target by name:
// all fields overwritten when present, inserted when absent.
func reconcileOffices(ctx context.Context, source, target *store.Store) (int, error) {
	sourceOffices, err := source.ListOffices(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, o := range sourceOffices {
		upsert := &store.Office{
			Name:      o.Name,
			Latitude:  o.Latitude,
			Longitude: o.Longitude,
			Radius:    o.Radius,
			UpdatedAt: o.UpdatedAt,
		}
		if err := target.UpsertOfficeByName(ctx, upsert); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
