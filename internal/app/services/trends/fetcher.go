package trends

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/shabikihub/shabiki/internal/app/domain/trend"
	"github.com/shabikihub/shabiki/pkg/logger"
)

// dailyTrendsEndpoint is a var so tests can point it at a local server.
var dailyTrendsEndpoint = "https://trends.google.com/trends/api/dailytrends"

// DefaultGeos is the default set of region codes scanned for football
// topics.
var DefaultGeos = []string{"GB", "ES", "IT", "DE", "FR", "US", "BR", "NG", "KE", "ZA", "IN", "SA"}

var footballPattern = regexp.MustCompile(`(?i)\b(football|soccer|premier league|epl|la\s?liga|laliga|serie\s?a|bundesliga|ligue\s?1|champions league|ucl|europa league|conference league|afcon|caf|fifa|uefa|world cup|copa del rey|fa cup|carabao|super cup|messi|ronaldo|mbappe|haaland|salah|arsenal|chelsea|liverpool|man\s?city|man\s?united|barca|barcelona|real\s?madrid|atletico|psg|bayern|dortmund|juventus|inter|milan|napoli|roma|marseille|ajax|benfica)\b`)

var trafficPattern = regexp.MustCompile(`([0-9]*\.?[0-9]+)(K|M)?`)

// GoogleFetcher pulls daily trends for each configured geo and merges the
// football-related entries into a single scored list.
type GoogleFetcher struct {
	geos   []string
	client *http.Client
	log    *logger.Logger
}

var _ Fetcher = (*GoogleFetcher)(nil)

// NewGoogleFetcher creates a fetcher for the given geo codes.
func NewGoogleFetcher(geos []string, log *logger.Logger) *GoogleFetcher {
	if len(geos) == 0 {
		geos = DefaultGeos
	}
	if log == nil {
		log = logger.NewDefault("trends")
	}
	return &GoogleFetcher{
		geos:   geos,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

type scoredTopic struct {
	item  trend.Topic
	score int
}

// FetchTrendingTopics fetches every geo, tolerating individual failures, and
// returns the top five topics by traffic score.
func (f *GoogleFetcher) FetchTrendingTopics(ctx context.Context) ([]trend.Topic, error) {
	merged := make(map[string]scoredTopic)

	for _, geo := range f.geos {
		payload, err := f.fetchGeo(ctx, geo)
		if err != nil {
			f.log.WithError(err).WithField("geo", geo).Warn("daily trends fetch failed")
			continue
		}
		for _, st := range parseDailyTrends(payload) {
			key := strings.ToLower(st.item.Topic)
			if existing, ok := merged[key]; !ok || st.score > existing.score {
				merged[key] = st
			}
		}
	}

	scored := make([]scoredTopic, 0, len(merged))
	for _, st := range merged {
		scored = append(scored, st)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > 5 {
		scored = scored[:5]
	}

	topics := make([]trend.Topic, 0, len(scored))
	for i, st := range scored {
		st.item.ID = strconv.Itoa(i + 1)
		topics = append(topics, st.item)
	}
	return topics, nil
}

func (f *GoogleFetcher) fetchGeo(ctx context.Context, geo string) ([]byte, error) {
	q := url.Values{}
	q.Set("hl", "en-US")
	q.Set("geo", geo)
	q.Set("ns", "15")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dailyTrendsEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daily trends status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// parseDailyTrends extracts football topics from a dailytrends payload. The
// endpoint prefixes its JSON with an XSSI guard line that must be stripped
// before parsing.
func parseDailyTrends(payload []byte) []scoredTopic {
	if idx := bytes.IndexByte(payload, '\n'); idx >= 0 && bytes.HasPrefix(payload, []byte(")]}'")) {
		payload = payload[idx+1:]
	}

	var result []scoredTopic
	days := gjson.GetBytes(payload, "default.trendingSearchesDays")
	days.ForEach(func(_, day gjson.Result) bool {
		day.Get("trendingSearches").ForEach(func(_, search gjson.Result) bool {
			topic := strings.TrimSpace(search.Get("title.query").String())
			if topic == "" || !footballPattern.MatchString(topic) {
				return true
			}
			traffic := search.Get("formattedTraffic").String()
			result = append(result, scoredTopic{
				item: trend.Topic{
					ID:           strings.ToLower(topic),
					Topic:        topic,
					SearchVolume: traffic,
					Description:  "Trending on Google",
				},
				score: trafficToNumber(traffic),
			})
			return true
		})
		return true
	})
	return result
}

// trafficToNumber turns formatted traffic like "200K+" or "1M+" into a
// comparable integer.
func trafficToNumber(traffic string) int {
	cleaned := strings.ToUpper(strings.NewReplacer(",", "", " ", "", "+", "").Replace(traffic))
	m := trafficPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return 0
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "M":
		return int(num * 1_000_000)
	case "K":
		return int(num * 1_000)
	default:
		return int(num)
	}
}
