package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"BPOrganizer.api/internal/models"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"go.uber.org/zap"
)

const measurement = "blood_pressure"

// InfluxDBRepository archives readings in InfluxDB.
type InfluxDBRepository struct {
	client influxdb2.Client
	org    string
	logger *zap.Logger
}

// NewInfluxDBRepository creates a new InfluxDBRepository.
func NewInfluxDBRepository(url, token, org string, logger *zap.Logger) *InfluxDBRepository {
	return &InfluxDBRepository{
		client: influxdb2.NewClient(url, token),
		org:    org,
		logger: logger,
	}
}

// Ping checks the server health.
func (r *InfluxDBRepository) Ping(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("InfluxDB health check failed: %s", msg)
	}
	return nil
}

// Close releases the client.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
}

// WriteReadings writes one point per reading, all stamped at.
func (r *InfluxDBRepository) WriteReadings(ctx context.Context, bucket, uploadID string, readings []models.Reading, at time.Time) error {
	writeAPI := r.client.WriteAPIBlocking(r.org, bucket)

	points := make([]*write.Point, 0, len(readings))
	for i, reading := range readings {
		points = append(points, readingPoint(uploadID, i, reading, at))
	}

	if err := writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	r.logger.Info("readings written to InfluxDB",
		zap.String("bucket", bucket),
		zap.String("upload_id", uploadID),
		zap.Int("points", len(points)))
	return nil
}

func readingPoint(uploadID string, seq int, reading models.Reading, at time.Time) *write.Point {
	fields := map[string]interface{}{
		"systolic":  int64(reading.Systolic),
		"diastolic": int64(reading.Diastolic),
	}
	if reading.Pulse != nil {
		fields["pulse"] = int64(*reading.Pulse)
	}
	if reading.Date != "" {
		fields["date"] = reading.Date
	}
	if reading.Time != "" {
		fields["time"] = reading.Time
	}
	return influxdb2.NewPoint(
		measurement,
		map[string]string{"upload_id": uploadID, "seq": strconv.Itoa(seq)},
		fields,
		at,
	)
}

// BucketExists checks if a bucket exists in InfluxDB.
func (r *InfluxDBRepository) BucketExists(ctx context.Context, name string) (bool, error) {
	_, err := r.client.BucketsAPI().FindBucketByName(ctx, name)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	return true, nil
}

// CreateBucket creates a new bucket in InfluxDB.
func (r *InfluxDBRepository) CreateBucket(ctx context.Context, name string) error {
	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("error finding organization '%s': %w", r.org, err)
	}
	if org == nil {
		return fmt.Errorf("organization '%s' not found", r.org)
	}

	if _, err := r.client.BucketsAPI().CreateBucketWithName(ctx, org, name); err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", name, err)
	}
	r.logger.Info("bucket created", zap.String("bucket", name))
	return nil
}

// QueryReadings returns archived readings ordered by time and position.
func (r *InfluxDBRepository) QueryReadings(ctx context.Context, bucket string, req models.HistoryRequest) ([]models.ArchivedReading, error) {
	fluxQuery, err := buildHistoryQuery(bucket, req)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("executing InfluxDB query", zap.String("query", fluxQuery))

	result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying InfluxDB: %w", err)
	}
	defer result.Close()

	var readings []models.ArchivedReading
	var seqs []int
	for result.Next() {
		values := result.Record().Values()
		archived := models.ArchivedReading{ArchivedAt: result.Record().Time()}
		archived.UploadID, _ = values["upload_id"].(string)
		archived.Systolic, _ = toInt(values["systolic"])
		archived.Diastolic, _ = toInt(values["diastolic"])
		if pulse, ok := toInt(values["pulse"]); ok {
			archived.Pulse = models.IntPtr(pulse)
		}
		archived.Date, _ = values["date"].(string)
		archived.Time, _ = values["time"].(string)
		seq, _ := values["seq"].(string)
		n, _ := strconv.Atoi(seq)
		readings = append(readings, archived)
		seqs = append(seqs, n)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query error: %w", result.Err())
	}

	// seq is a tag, so the server orders it as text
	idx := make([]int, len(readings))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := readings[idx[a]], readings[idx[b]]
		if !ra.ArchivedAt.Equal(rb.ArchivedAt) {
			return ra.ArchivedAt.Before(rb.ArchivedAt)
		}
		return seqs[idx[a]] < seqs[idx[b]]
	})
	ordered := make([]models.ArchivedReading, len(readings))
	for i, j := range idx {
		ordered[i] = readings[j]
	}
	return ordered, nil
}

var relativeTime = regexp.MustCompile(`^-?[0-9]+(ns|us|ms|s|m|h|d|w|mo|y)$`)

// fluxTime validates a range bound: 0, a relative duration such as -7d,
// or an RFC3339 timestamp.
func fluxTime(v string) (string, error) {
	if v == "0" || relativeTime.MatchString(v) {
		return v, nil
	}
	if _, err := time.Parse(time.RFC3339, v); err == nil {
		return v, nil
	}
	return "", fmt.Errorf("%w %q", ErrInvalidTimeBound, v)
}

func buildHistoryQuery(bucket string, req models.HistoryRequest) (string, error) {
	start, err := fluxTime(req.TimeRangeStart)
	if err != nil {
		return "", err
	}
	rangeClause := fmt.Sprintf(`|> range(start: %s)`, start)
	if req.TimeRangeStop != "" {
		stop, err := fluxTime(req.TimeRangeStop)
		if err != nil {
			return "", err
		}
		rangeClause = fmt.Sprintf(`|> range(start: %s, stop: %s)`, start, stop)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", strconv.Quote(bucket))
	fmt.Fprintf(&b, "\t%s\n", rangeClause)
	fmt.Fprintf(&b, "\t|> filter(fn: (r) => r[\"_measurement\"] == %s)\n", strconv.Quote(measurement))
	if req.UploadID != "" {
		fmt.Fprintf(&b, "\t|> filter(fn: (r) => r[\"upload_id\"] == %s)\n", strconv.Quote(req.UploadID))
	}
	b.WriteString("\t|> pivot(rowKey: [\"_time\"], columnKey: [\"_field\"], valueColumn: \"_value\")\n")
	b.WriteString("\t|> group()\n")
	b.WriteString("\t|> sort(columns: [\"_time\"])")
	return b.String(), nil
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
