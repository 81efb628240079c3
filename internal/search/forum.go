package search

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kvasir-dev/plugvault/internal/models"
)

// ForumClient searches the community discussion forum (a Discourse
// instance). Forum hits are topics, not repositories, so they never pass
// through the repository classifier; a title/tag heuristic filters themes
// and snippets instead.
type ForumClient struct {
	client  *http.Client
	baseURL string
}

// NewForumClient creates a forum client for the Discourse instance at
// baseURL.
func NewForumClient(baseURL string) *ForumClient {
	return &ForumClient{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// forumResponse is the wire shape of Discourse's /search.json.
type forumResponse struct {
	Topics []struct {
		ID    int      `json:"id"`
		Title string   `json:"title"`
		Slug  string   `json:"slug"`
		Tags  []string `json:"tags"`
	} `json:"topics"`
	Posts []struct {
		ID      int    `json:"id"`
		TopicID int    `json:"topic_id"`
		Blurb   string `json:"blurb"`
	} `json:"posts"`
}

// Search queries the forum and returns topic hits deduplicated by topic id.
// Posts belonging to the same topic collapse into one hit carrying the
// first post's blurb as excerpt.
func (f *ForumClient) Search(q Query) ([]models.ForumHit, error) {
	term := q.Raw
	if q.IsAuthor() {
		term = "@" + q.Author
	}
	u := fmt.Sprintf("%s/search.json?q=%s", f.baseURL, url.QueryEscape(term+" #plugins"))

	resp, err := f.client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("forum search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forum search returned status %d", resp.StatusCode)
	}

	var apiResponse forumResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse forum response: %w", err)
	}

	blurbs := make(map[int]string)
	for _, post := range apiResponse.Posts {
		if _, exists := blurbs[post.TopicID]; !exists {
			blurbs[post.TopicID] = stripHTML(post.Blurb)
		}
	}

	seen := make(map[int]bool)
	hits := make([]models.ForumHit, 0, len(apiResponse.Topics))
	for _, topic := range apiResponse.Topics {
		if seen[topic.ID] {
			continue
		}
		seen[topic.ID] = true

		if f.excluded(q, topic.Title, topic.Tags) {
			continue
		}

		hits = append(hits, models.ForumHit{
			TopicID: topic.ID,
			Title:   topic.Title,
			Excerpt: blurbs[topic.ID],
			URL:     fmt.Sprintf("%s/t/%s/%d", f.baseURL, topic.Slug, topic.ID),
		})
	}
	return hits, nil
}

// excluded applies the forum-specific theme/snippet heuristic: a topic
// titled or tagged as a theme or CSS snippet is dropped unless the query
// asked for one.
func (f *ForumClient) excluded(q Query, title string, tags []string) bool {
	if q.MentionsTheme() || q.MentionsCSS() {
		return false
	}
	lower := strings.ToLower(title)
	if strings.Contains(lower, "theme") || strings.Contains(lower, "css snippet") {
		return true
	}
	for _, tag := range tags {
		switch strings.ToLower(tag) {
		case "theme", "themes", "css", "snippet", "snippets":
			return true
		}
	}
	return false
}

// stripHTML flattens a Discourse blurb (which carries highlight markup and
// entities) into plain text.
func stripHTML(blurb string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blurb))
	if err != nil {
		return blurb
	}
	return strings.TrimSpace(doc.Text())
}
