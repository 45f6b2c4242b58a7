package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// routeClass groups routes that share an auth and rate limit policy
type routeClass int

const (
	// routeHealth covers liveness and readiness checks: no token, no limit
	routeHealth routeClass = iota
	// routeRead covers stored reports, history and job status
	routeRead
	// routeScan covers requests that start a scan and fetch a third-party site
	routeScan
	// routeAsset covers stored screenshots: read limits, no token, since
	// dashboards embed them as plain image links
	routeAsset
)

func (c routeClass) String() string {
	switch c {
	case routeHealth:
		return "health"
	case routeScan:
		return "scan"
	case routeAsset:
		return "asset"
	default:
		return "read"
	}
}

// effectiveClass downgrades scan routes to reads for methods that do not
// start a scan, e.g. GET /jobs
func effectiveClass(c routeClass, r *http.Request) routeClass {
	if c == routeScan && r.Method != http.MethodPost {
		return routeRead
	}
	return c
}

// Limit is a token bucket setting; zero Rate disables limiting
type Limit struct {
	Rate  float64 // requests per second per client
	Burst int
}

func (l Limit) enabled() bool { return l.Rate > 0 }

func (l Limit) burst() int {
	if l.Burst <= 0 {
		return 1
	}
	return l.Burst
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

type limiterKey struct {
	class  routeClass
	client string
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per client and route class. Idle
// buckets are swept on access, so the pool needs no background goroutine.
type limiterPool struct {
	mu        sync.Mutex
	limits    map[routeClass]Limit
	buckets   map[limiterKey]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterPool(read, scan Limit) *limiterPool {
	return &limiterPool{
		limits:  map[routeClass]Limit{routeRead: read, routeScan: scan, routeAsset: read},
		buckets: make(map[limiterKey]*clientLimiter),
		now:     time.Now,
	}
}

// reserve takes a token for client. When none is available it returns the
// time after which a retry can succeed.
func (p *limiterPool) reserve(class routeClass, client string) (bool, time.Duration) {
	limit, ok := p.limits[class]
	if !ok || !limit.enabled() {
		return true, 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) >= limiterSweepEvery {
		for key, b := range p.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(p.buckets, key)
			}
		}
		p.lastSweep = now
	}

	key := limiterKey{class: class, client: client}
	b, ok := p.buckets[key]
	if !ok {
		b = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(limit.Rate), limit.burst())}
		p.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, 0
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

// clientAddr identifies the caller for rate limiting: the first
// X-Forwarded-For hop when present, else the peer address without its port
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// retryAfterSeconds rounds a wait up to whole seconds for Retry-After
func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
