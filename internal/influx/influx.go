package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
	"github.com/scanbots/arena/internal/config"
	"github.com/scanbots/arena/pkg/core"
)

// MeasurementBattleSummary is the measurement written once per battle.
const MeasurementBattleSummary = "battle_summary"

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influxdb is disabled")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile *os.File
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		Writers:    make(map[string]influxdb2_api.WriteAPI),
		IsValid:    false,
		Logger:     log,
		BackupPath: backupPath,
	}
}

// Connect establishes a connection to InfluxDB. When the server cannot be
// reached, points are written to a gzip line-protocol backup file instead.
func (m *Manager) Connect(cfg config.InfluxConfig) error {
	if !cfg.Enabled {
		return ErrDisabled
	}
	m.cfg = cfg
	m.BucketNames = []string{cfg.Bucket}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", cfg.Protocol, cfg.Host, cfg.Port),
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(context.Background())

	if err != nil || !running {
		m.IsValid = false
		// create backup writer
		if m.BackupWriter == nil {
			m.Logger.Info().Str("backupPath", m.BackupPath).
				Msg("Failed to initialize InfluxDB client, writing to backup file")

			file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("error creating backup file: %w", err)
			}
			m.backupFile = file
			m.BackupWriter = gzip.NewWriter(file)
		}
	} else {
		m.IsValid = true
	}

	if m.IsValid {
		err = m.setupOrganizationAndBuckets()
		if err != nil {
			return err
		}
		m.CreateWriters()
		m.Logger.Info().Msg("InfluxDB client initialized")
	} else {
		m.Logger.Warn().Msg("InfluxDB client failed to initialize, using backup writer")
	}

	return nil
}

func (m *Manager) setupOrganizationAndBuckets() error {
	ctx := context.Background()
	orgName := m.cfg.Org

	// ensure org exists
	_, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		_, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// get influxOrg
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Error().Err(err).Str("org", orgName).Msg("Error getting organization")
		return err
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		_, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket)
		if err != nil {
			m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

			rule := domain.RetentionRuleTypeExpire
			_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
				Type:         &rule,
				EverySeconds: 60 * 60 * 24 * 90, // 90 days
			})
			if err != nil {
				m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
				return err
			}
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(m.cfg.Org, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		if _, ok := m.Writers[bucket]; !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		m.Writers[bucket].WritePoint(point)
	} else {
		if m.BackupWriter == nil {
			return fmt.Errorf("influxDB client not initialized and backup writer not available")
		}

		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Duration(1*time.Nanosecond))
		_, err := m.BackupWriter.Write([]byte(lineProtocol + "\n"))
		if err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
	}

	return nil
}

// WriteBattle writes the battle summary point to the configured bucket.
func (m *Manager) WriteBattle(ctx context.Context, rec *core.BattleRecord) error {
	return m.WritePoint(ctx, m.cfg.Bucket, BattlePoint(rec))
}

// Close flushes pending points and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
		m.Client = nil
	}
	m.IsValid = false

	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	return errors.Join(errs...)
}

// BattlePoint builds the battle_summary point for rec. The point is
// timestamped with the record's creation time.
func BattlePoint(rec *core.BattleRecord) *influxdb2_write.Point {
	res := &rec.Result

	var damage, crits, misses, specials, heals int
	for _, l := range res.Logs {
		damage += l.Damage
		if l.Critical {
			crits++
		}
		if l.Miss {
			misses++
		}
		if l.Action == core.ActionSpecial {
			specials++
		}
		heals += l.HealAmount
	}

	return influxdb2_write.NewPointWithMeasurement(MeasurementBattleSummary).
		AddTag("winner", res.WinnerID).
		AddTag("loser", res.LoserID).
		AddTag("p1", res.P1.ID).
		AddTag("p2", res.P2.ID).
		AddTag("sudden_death", strconv.FormatBool(res.SuddenDeath())).
		AddField("battle_id", rec.BattleID).
		AddField("turns", res.Turns).
		AddField("actions", len(res.Logs)).
		AddField("total_damage", damage).
		AddField("crits", crits).
		AddField("misses", misses).
		AddField("specials", specials).
		AddField("healed", heals).
		SetTime(rec.CreatedAt)
}
