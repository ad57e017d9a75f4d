package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/stagelog/internal/models"
)

// RefreshCookie is the name of the backend's HttpOnly refresh cookie.
const RefreshCookie = "refresh_token"

// RecordedRequest is one request seen by a [FakeBackend].
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

// FakeBackend emulates the Stagelog API closely enough to exercise token
// refresh: every route outside /api/auth/ requires the current access token,
// and /api/auth/refresh rotates it when the refresh cookie matches.
type FakeBackend struct {
	*httptest.Server

	mu            sync.Mutex
	accessToken   string
	nextTokens    []string
	refreshCookie string
	refreshStatus int
	user          models.UserInfo
	passwords     map[string]string
	performances  map[int64]models.PerformanceDetail
	reviews       map[int64]models.ReviewDetail
	interested    map[int64]models.InterestedPerformanceItem
	tracks        []models.SpotifyTrack
	nextID        int64
	requests      []RecordedRequest

	// hooks run outside the lock
	beforeRefresh      func()
	beforeUnauthorized func(r *http.Request)
}

// NewFakeBackend starts a backend whose current access token is "T1" and
// whose next refreshed token is "T2". It is closed when t finishes.
func NewFakeBackend(t testing.TB) *FakeBackend {
	f := &FakeBackend{
		accessToken:   "T1",
		nextTokens:    []string{"T2"},
		refreshCookie: "R1",
		user:          models.UserInfo{UserID: 1, Email: "fan@stagelog.kr", Nickname: "stagefan"},
		passwords:     map[string]string{"stagefan": "abc123!@"},
		performances:  make(map[int64]models.PerformanceDetail),
		reviews:       make(map[int64]models.ReviewDetail),
		interested:    make(map[int64]models.InterestedPerformanceItem),
		nextID:        100,
	}
	for i := int64(1); i <= 8; i++ {
		f.performances[i] = models.PerformanceDetail{
			ID:        i,
			Title:     fmt.Sprintf("Performance %d", i),
			PosterURL: fmt.Sprintf("https://img.stagelog.test/%d.jpg", i),
			Cast:      []string{"Band A"},
			StartDate: fmt.Sprintf("2025-03-%02d", i),
			EndDate:   fmt.Sprintf("2025-03-%02d", i+1),
			Place:     "Olympic Hall",
		}
	}
	f.tracks = []models.SpotifyTrack{
		{ID: "sp1", Name: "Hype Boy", Artists: []models.SpotifyArtist{{Name: "NewJeans"}}, Album: models.SpotifyAlbum{Images: []models.SpotifyImage{{URL: "https://i.scdn.co/1.jpg"}}}},
		{ID: "sp2", Name: "Ditto", Artists: []models.SpotifyArtist{{Name: "NewJeans"}}},
	}

	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Close)
	return f
}

func (f *FakeBackend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", f.login)
	mux.HandleFunc("POST /api/auth/signup", f.signup)
	mux.HandleFunc("POST /api/auth/refresh", f.refresh)
	mux.HandleFunc("GET /api/auth/check-userid", f.checkUserID)
	mux.HandleFunc("POST /api/auth/logout", f.authed(f.logout))
	mux.HandleFunc("GET /api/performances", f.authed(f.listPerformances))
	mux.HandleFunc("GET /api/performances/calendar", f.authed(f.calendar))
	mux.HandleFunc("GET /api/performances/{id}", f.authed(f.getPerformance))
	mux.HandleFunc("GET /api/reviews", f.authed(f.listReviews))
	mux.HandleFunc("POST /api/reviews", f.authed(f.createReview))
	mux.HandleFunc("GET /api/reviews/{id}", f.authed(f.getReview))
	mux.HandleFunc("PUT /api/reviews/{id}", f.authed(f.updateReview))
	mux.HandleFunc("DELETE /api/reviews/{id}", f.authed(f.deleteReview))
	mux.HandleFunc("GET /api/interested-performances", f.authed(f.listInterested))
	mux.HandleFunc("POST /api/interested-performances", f.authed(f.addInterested))
	mux.HandleFunc("DELETE /api/interested-performances/{id}", f.authed(f.removeInterested))
	mux.HandleFunc("GET /api/spotify/search/tracks", f.authed(f.searchTracks))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Authorization: r.Header.Get("Authorization")})
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// SetAccessToken changes which bearer token the backend accepts.
func (f *FakeBackend) SetAccessToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessToken = token
}

// QueueTokens sets the tokens handed out by successive refreshes.
func (f *FakeBackend) QueueTokens(tokens ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTokens = tokens
}

// FailRefresh makes /api/auth/refresh answer with status. Zero restores normal behaviour.
func (f *FakeBackend) FailRefresh(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshStatus = status
}

// BeforeRefresh runs fn at the start of every refresh request.
func (f *FakeBackend) BeforeRefresh(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeRefresh = fn
}

// BeforeUnauthorized runs fn before every 401 caused by a bad access token.
func (f *FakeBackend) BeforeUnauthorized(fn func(r *http.Request)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beforeUnauthorized = fn
}

// Requests returns every request seen so far.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count is the number of requests seen for method and path.
func (f *FakeBackend) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// DeletePerformance removes a performance from the catalogue. Bookmarks of it
// are kept, so fetching their detail returns 404.
func (f *FakeBackend) DeletePerformance(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.performances, id)
}

// AddReview seeds a review owned by the fake user.
func (f *FakeBackend) AddReview(r models.ReviewDetail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews[r.ID] = r
}

// Review returns the stored review with id.
func (f *FakeBackend) Review(id int64) (models.ReviewDetail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	return r, ok
}

// User is the identity returned by login and refresh.
func (f *FakeBackend) User() models.UserInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{
		Timestamp: "2025-03-01T12:00:00",
		Status:    status,
		Code:      code,
		Message:   message,
	})
}

func (f *FakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := r.Header.Get("Authorization") == "Bearer "+f.accessToken
		hook := f.beforeUnauthorized
		f.mu.Unlock()

		if !ok {
			if hook != nil {
				hook(r)
			}
			writeError(w, http.StatusUnauthorized, "EXPIRED_TOKEN", "access token expired")
			return
		}
		h(w, r)
	}
}

func (f *FakeBackend) tokenResponse(token string) models.TokenResponse {
	return models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		UserID:      f.user.UserID,
		Email:       f.user.Email,
		Nickname:    f.user.Nickname,
	}
}

func (f *FakeBackend) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/api/auth/refresh",
		HttpOnly: true,
		MaxAge:   7 * 24 * 3600,
	})
}

func (f *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed body")
		return
	}

	f.mu.Lock()
	pw, ok := f.passwords[req.UserID]
	if !ok || pw != req.Password {
		f.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", "invalid user id or password")
		return
	}
	resp := f.tokenResponse(f.accessToken)
	cookie := f.refreshCookie
	f.mu.Unlock()

	f.setRefreshCookie(w, cookie)
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.passwords[req.UserID]; taken {
		writeError(w, http.StatusConflict, "DUPLICATE_USER_ID", "user id already exists")
		return
	}
	f.passwords[req.UserID] = req.Password
	f.nextID++
	writeJSON(w, http.StatusCreated, f.nextID)
}

func (f *FakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	hook := f.beforeRefresh
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshStatus != 0 {
		writeError(w, f.refreshStatus, "INVALID_REFRESH_TOKEN", "refresh token rejected")
		return
	}
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value != f.refreshCookie {
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token missing")
		return
	}
	if len(f.nextTokens) == 0 {
		writeError(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "no token left to issue")
		return
	}

	f.accessToken, f.nextTokens = f.nextTokens[0], f.nextTokens[1:]
	f.refreshCookie = "R-" + f.accessToken
	f.setRefreshCookie(w, f.refreshCookie)
	writeJSON(w, http.StatusOK, f.tokenResponse(f.accessToken))
}

func (f *FakeBackend) checkUserID(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	_, taken := f.passwords[r.URL.Query().Get("userId")]
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, taken)
}

func (f *FakeBackend) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: RefreshCookie, Path: "/api/auth/refresh", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (f *FakeBackend) listPerformances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = models.DefaultPageSize
	}
	keyword := q.Get("keyword")

	f.mu.Lock()
	var all []models.PerformanceListItem
	for _, p := range f.performances {
		if keyword != "" && !strings.Contains(p.Title, keyword) {
			continue
		}
		all = append(all, models.PerformanceListItem{ID: p.ID, Title: p.Title, PosterURL: p.PosterURL, StartDate: p.StartDate, EndDate: p.EndDate})
	}
	f.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate < all[j].StartDate })

	start := min(page*size, len(all))
	end := min(start+size, len(all))
	totalPages := (len(all) + size - 1) / size
	writeJSON(w, http.StatusOK, models.Page[models.PerformanceListItem]{
		Content:       all[start:end],
		TotalPages:    totalPages,
		TotalElements: len(all),
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page >= totalPages-1,
		Empty:         end == start,
	})
}

func (f *FakeBackend) getPerformance(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	f.mu.Lock()
	p, ok := f.performances[id]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "PERFORMANCE_NOT_FOUND", "performance not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeBackend) calendar(w http.ResponseWriter, r *http.Request) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	f.mu.Lock()
	var out []models.CalendarPerformance
	for _, p := range f.performances {
		if strings.HasPrefix(p.StartDate, prefix) {
			out = append(out, models.CalendarPerformance{ID: p.ID, Title: p.Title, StartDate: p.StartDate, EndDate: p.EndDate})
		}
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) listReviews(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	out := make([]models.ReviewListItem, 0, len(f.reviews))
	for _, rv := range f.reviews {
		out = append(out, models.ReviewListItem{ID: rv.ID, Title: rv.Title, CreatedAt: rv.CreatedAt})
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func reviewFromRequest(id int64, createdAt string, req models.ReviewRequest) models.ReviewDetail {
	d := models.ReviewDetail{ID: id, Title: req.Title, Content: req.Content, CreatedAt: createdAt, PlaylistTitle: req.PlaylistTitle}
	for i, t := range req.Tracks {
		d.Tracks = append(d.Tracks, models.Track{
			ID:            int64(i + 1),
			Title:         t.Title,
			ArtistName:    t.ArtistName,
			AlbumImageURL: t.AlbumImageURL,
			SpotifyID:     t.SpotifyID,
		})
	}
	return d
}

func (f *FakeBackend) createReview(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed body")
		return
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.reviews[id] = reviewFromRequest(id, "2025-03-02T20:00:00", req)
	f.mu.Unlock()
	writeJSON(w, http.StatusCreated, id)
}

func (f *FakeBackend) getReview(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	rv, ok := f.Review(id)
	if !ok {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review not found")
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (f *FakeBackend) updateReview(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed body")
		return
	}
	f.mu.Lock()
	old, ok := f.reviews[id]
	if ok {
		f.reviews[id] = reviewFromRequest(id, old.CreatedAt, req)
	}
	updated := f.reviews[id]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (f *FakeBackend) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	f.mu.Lock()
	_, ok := f.reviews[id]
	delete(f.reviews, id)
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "REVIEW_NOT_FOUND", "review not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeBackend) listInterested(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	out := make([]models.InterestedPerformanceItem, 0, len(f.interested))
	for _, it := range f.interested {
		out = append(out, it)
	}
	f.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (f *FakeBackend) addInterested(w http.ResponseWriter, r *http.Request) {
	var req models.InterestedCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.performances[req.PerformanceID]
	if !ok {
		writeError(w, http.StatusNotFound, "PERFORMANCE_NOT_FOUND", "performance not found")
		return
	}
	if _, dup := f.interested[p.ID]; dup {
		writeError(w, http.StatusConflict, "ALREADY_INTERESTED", "already interested")
		return
	}
	f.nextID++
	f.interested[p.ID] = models.InterestedPerformanceItem{
		ID: f.nextID, PerformanceID: p.ID, Title: p.Title, PosterURL: p.PosterURL,
		StartDate: p.StartDate, EndDate: p.EndDate, Venue: p.Place,
	}
	writeJSON(w, http.StatusCreated, models.InterestedCreateResponse{ID: f.nextID})
}

func (f *FakeBackend) removeInterested(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	f.mu.Lock()
	it, ok := f.interested[id]
	delete(f.interested, id)
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "INTERESTED_NOT_FOUND", "not interested")
		return
	}
	writeJSON(w, http.StatusOK, it.ID)
}

func (f *FakeBackend) searchTracks(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(r.URL.Query().Get("keyword"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var resp models.SpotifySearchResponse
	resp.Tracks.Items = []models.SpotifyTrack{}
	f.mu.Lock()
	for _, t := range f.tracks {
		if strings.Contains(strings.ToLower(t.Name+" "+t.ArtistNames()), keyword) {
			resp.Tracks.Items = append(resp.Tracks.Items, t)
		}
	}
	f.mu.Unlock()
	if limit > 0 && len(resp.Tracks.Items) > limit {
		resp.Tracks.Items = resp.Tracks.Items[:limit]
	}
	writeJSON(w, http.StatusOK, resp)
}
