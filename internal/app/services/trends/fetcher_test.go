package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleDailyTrends = `)]}'
{
  "default": {
    "trendingSearchesDays": [
      {
        "trendingSearches": [
          {"title": {"query": "Arsenal vs Chelsea"}, "formattedTraffic": "200K+"},
          {"title": {"query": "Taylor Swift"}, "formattedTraffic": "2M+"},
          {"title": {"query": "Champions League draw"}, "formattedTraffic": "1M+"},
          {"title": {"query": "Haaland injury"}, "formattedTraffic": "50K+"}
        ]
      }
    ]
  }
}`

func TestParseDailyTrendsFiltersFootball(t *testing.T) {
	topics := parseDailyTrends([]byte(sampleDailyTrends))

	if len(topics) != 3 {
		t.Fatalf("expected 3 football topics, got %d", len(topics))
	}
	for _, st := range topics {
		if st.item.Topic == "Taylor Swift" {
			t.Fatal("non-football topic slipped through the filter")
		}
	}
}

func TestParseDailyTrendsScores(t *testing.T) {
	topics := parseDailyTrends([]byte(sampleDailyTrends))

	scores := make(map[string]int)
	for _, st := range topics {
		scores[st.item.Topic] = st.score
	}
	if scores["Champions League draw"] != 1_000_000 {
		t.Fatalf("expected 1M score, got %d", scores["Champions League draw"])
	}
	if scores["Arsenal vs Chelsea"] != 200_000 {
		t.Fatalf("expected 200K score, got %d", scores["Arsenal vs Chelsea"])
	}
}

func TestTrafficToNumber(t *testing.T) {
	cases := map[string]int{
		"200K+": 200_000,
		"1M+":   1_000_000,
		"2.5M":  2_500_000,
		"500":   500,
		"":      0,
		"n/a":   0,
	}
	for in, want := range cases {
		if got := trafficToNumber(in); got != want {
			t.Fatalf("trafficToNumber(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFetchTrendingTopicsMergesGeos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geo := r.URL.Query().Get("geo")
		switch geo {
		case "GB":
			fmt.Fprint(w, sampleDailyTrends)
		case "KE":
			// Same topic with higher traffic plus one extra.
			fmt.Fprint(w, `)]}'
{"default":{"trendingSearchesDays":[{"trendingSearches":[
  {"title":{"query":"arsenal vs chelsea"},"formattedTraffic":"500K+"},
  {"title":{"query":"Gor Mahia FIFA ruling"},"formattedTraffic":"20K+"}
]}]}}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	f := NewGoogleFetcher([]string{"GB", "KE", "US"}, nil)
	f.client = server.Client()
	orig := dailyTrendsEndpoint
	dailyTrendsEndpoint = server.URL
	defer func() { dailyTrendsEndpoint = orig }()

	topics, err := f.FetchTrendingTopics(context.Background())
	if err != nil {
		t.Fatalf("FetchTrendingTopics: %v", err)
	}

	if len(topics) == 0 || len(topics) > 5 {
		t.Fatalf("expected between 1 and 5 topics, got %d", len(topics))
	}
	// Case-insensitive merge keeps one entry with the higher score first.
	if topics[0].Topic != "Champions League draw" {
		t.Fatalf("expected the highest-traffic topic first, got %q", topics[0].Topic)
	}
	seen := make(map[string]bool)
	for i, topic := range topics {
		key := topic.Topic
		if seen[key] {
			t.Fatalf("duplicate topic after merge: %q", key)
		}
		seen[key] = true
		if want := fmt.Sprintf("%d", i+1); topic.ID != want {
			t.Fatalf("expected rank id %s, got %s", want, topic.ID)
		}
	}
}
