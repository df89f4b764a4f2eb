package rejects

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/blake2b"

	"static-file-filter/lib/db/geo"
	"static-file-filter/lib/log"
)

const defaultCapacity = 1000

var pingPeriod = time.Minute

type RejectRecord struct {
	ID        string    `json:"id" redis:"id"`
	Time      time.Time `json:"time" redis:"time"`
	Host      string    `json:"host" redis:"host"`
	Path      string    `json:"path" redis:"path"`
	Scope     string    `json:"scope" redis:"scope"`
	Extension string    `json:"extension" redis:"extension"`
	Client    string    `json:"client" redis:"client"`
	Country   string    `json:"country,omitempty" redis:"country"`
}

func (rr *RejectRecord) MarshalBinary() ([]byte, error) {
	return json.Marshal(rr)
}

// RejectStorage keeps the most recent records in a fixed size ring.
type RejectStorage struct {
	records []*RejectRecord
	next    int
	size    int
	mx      sync.Mutex
}

func newRejectStorage(capacity int) *RejectStorage {
	return &RejectStorage{
		records: make([]*RejectRecord, capacity),
	}
}

func (rs *RejectStorage) Store(record *RejectRecord) {
	if record == nil {
		return
	}

	rs.mx.Lock()
	rs.records[rs.next] = record
	rs.next = (rs.next + 1) % len(rs.records)
	if rs.size < len(rs.records) {
		rs.size++
	}
	rs.mx.Unlock()
}

// Recent returns up to n records, newest first.
func (rs *RejectStorage) Recent(n int) []*RejectRecord {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	if n <= 0 || n > rs.size {
		n = rs.size
	}

	result := make([]*RejectRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (rs.next - i + len(rs.records)) % len(rs.records)
		result = append(result, rs.records[idx])
	}

	return result
}

func (rs *RejectStorage) Size() int {
	rs.mx.Lock()
	defer rs.mx.Unlock()

	return rs.size
}

func (rs *RejectStorage) Cap() int {
	return len(rs.records)
}

// RejectStorageClient mirrors records into a capped redis list shared by
// every instance.
type RejectStorageClient struct {
	client   *redis.Client
	capacity int64
	enabled  bool
	mx       sync.Mutex
}

func (c *RejectStorageClient) StorageKey() string {
	return "REJECTS"
}

func (c *RejectStorageClient) IsActive() bool {
	c.mx.Lock()
	result := c.client != nil && c.enabled
	c.mx.Unlock()

	return result
}

func (c *RejectStorageClient) setEnabled(enabled bool) {
	c.mx.Lock()
	c.enabled = enabled
	c.mx.Unlock()
}

// Start pings redis until ctx is done and toggles the client accordingly.
func (c *RejectStorageClient) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			_, err := c.client.Ping(ctx).Result()
			if err != nil && c.IsActive() {
				log.Warn("RejectStorageClient: redis unavailable:", err.Error())
			}
			c.setEnabled(err == nil)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (c *RejectStorageClient) Store(record *RejectRecord) {
	if record == nil {
		return
	}

	ctx := context.Background()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, c.StorageKey(), record)
		pipe.LTrim(ctx, c.StorageKey(), 0, c.capacity-1)
		return nil
	})
	if err != nil {
		log.Error("RejectStorageClient.Store", record.ID, err.Error())
	}
}

func (c *RejectStorageClient) Recent(ctx context.Context, n int) ([]*RejectRecord, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}

	data, err := c.client.LRange(ctx, c.StorageKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*RejectRecord, 0, len(data))
	for _, entry := range data {
		var record RejectRecord
		if err := json.Unmarshal([]byte(entry), &record); err != nil {
			log.Warn("RejectStorageClient.Recent", err.Error())
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

type Config struct {
	Capacity  int
	RedisAddr string
	GeoIPDB   string
	Salt      string
}

// Log is the audit trail of forbidden requests.
type Log struct {
	storage *RejectStorage
	client  *RejectStorageClient
	geo     *geo.Resolver
	makeID  func() string
	salt    string
	cancel  context.CancelFunc
}

func NewLog(cfg Config) (*Log, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	makeID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}

	l := &Log{
		storage: newRejectStorage(capacity),
		makeID:  makeID,
		salt:    cfg.Salt,
	}

	if cfg.GeoIPDB != "" {
		l.geo, err = geo.Open(cfg.GeoIPDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
		}
	}

	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		l.cancel = cancel
		l.client = &RejectStorageClient{
			client:   redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}),
			capacity: int64(capacity),
		}
		l.client.Start(ctx)
	}

	return l, nil
}

// Record stores a rejection. Strings are cloned since host frameworks may
// reuse the buffers they hand out.
func (l *Log) Record(host, path, scope, extension, remoteIP string) *RejectRecord {
	record := &RejectRecord{
		ID:        l.makeID(),
		Time:      time.Now().UTC(),
		Host:      strings.Clone(host),
		Path:      strings.Clone(path),
		Scope:     scope,
		Extension: extension,
		Client:    l.hashClient(remoteIP),
		Country:   l.geo.Country(remoteIP),
	}

	l.storage.Store(record)
	if l.client != nil && l.client.IsActive() {
		go l.client.Store(record)
	}

	return record
}

// Recent prefers the shared redis list and falls back to local records.
func (l *Log) Recent(ctx context.Context, n int) []*RejectRecord {
	if l.client != nil && l.client.IsActive() {
		records, err := l.client.Recent(ctx, n)
		if err == nil {
			return records
		}
		log.Warn("Log.Recent: falling back to memory:", err.Error())
	}

	return l.storage.Recent(n)
}

func (l *Log) Size() int {
	return l.storage.Size()
}

func (l *Log) Cap() int {
	return l.storage.Cap()
}

func (l *Log) Close() error {
	if l.cancel != nil {
		l.cancel()
	}

	var err error
	if l.client != nil {
		err = l.client.client.Close()
	}
	if geoErr := l.geo.Close(); geoErr != nil && err == nil {
		err = geoErr
	}

	return err
}

// hashClient keeps client addresses out of the audit trail.
func (l *Log) hashClient(remoteIP string) string {
	if remoteIP == "" {
		return ""
	}

	sum := blake2b.Sum256([]byte(l.salt + "|" + remoteIP))
	return hex.EncodeToString(sum[:8])
}
