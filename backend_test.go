/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// fakeBackend stands in for the site's api and chat relay.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	rooms    map[string]map[*relayClient]bool
	received []Envelope
	planets  []Exoplanet
	blogs    []Blog
	tokens   map[string]string
	answers  map[string]string
	authSeen []string
}

type relayClient struct {
	conn *websocket.Conn
	send chan Envelope
	room string
	name string
}

var relayUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{
		t:      t,
		rooms:  make(map[string]map[*relayClient]bool),
		tokens: make(map[string]string),
		planets: []Exoplanet{
			{ID: 1, Name: "Gliese 667 Cc", Description: "Orbits Gliese 667 C.", Image: "gliese.jpg", Story: "In the habitable zone."},
			{ID: 2, Name: "Kepler-22b", Description: "A super-Earth.", Image: "kep.jpg", Story: "Discovered by Kepler.",
				Quiz: []Question{
					{ID: 1, QuestionText: "Mass compared to Earth?", OptionA: "Less", OptionB: "Equal", OptionC: "2.4x", OptionD: "5x"},
					{ID: 2, QuestionText: "Discovery year?", OptionA: "2009", OptionB: "2011", OptionC: "2013", OptionD: "2015"},
				}},
			{ID: 3, Name: "TRAPPIST-1e", Description: "Rocky.", Image: "trappist.jpg", Story: "Seven siblings.",
				Quiz: []Question{
					{ID: 5, QuestionText: "How many planets?", OptionA: "3", OptionB: "5", OptionC: "7", OptionD: "9", CorrectOption: "C"},
				}},
		},
		answers: map[string]string{"1": "c", "2": "b"},
	}

	mux := httprouter.New()
	mux.GET("/ws", b.serveWS)
	mux.POST("/api/login", b.login)
	mux.POST("/api/register", b.register)
	mux.GET("/api/blogs", b.listBlogs)
	mux.POST("/api/blogs", b.createBlog)
	mux.GET("/api/exoplanets", b.listPlanets)
	mux.GET("/api/exoplanets/:id", b.getPlanet)
	mux.POST("/api/exoplanets/:id/complete", b.complete)

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)

	return b
}

func (b *fakeBackend) apiURL() string {
	return b.srv.URL + "/api"
}

func (b *fakeBackend) wsURL() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http") + "/ws"
}

func (b *fakeBackend) config() *Config {
	cfg := testConfig()
	cfg.api = b.apiURL()
	return cfg
}

func (b *fakeBackend) Received() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Envelope(nil), b.received...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := relayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &relayClient{conn: conn, send: make(chan Envelope, 16)}

	go c.writePump()
	b.readPump(c)
}

func (b *fakeBackend) readPump(c *relayClient) {
	defer func() {
		b.mu.Lock()
		if members, ok := b.rooms[c.room]; ok {
			delete(members, c)
		}
		b.mu.Unlock()
		close(c.send)
		_ = c.conn.Close()
	}()

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		b.mu.Lock()
		b.received = append(b.received, env)
		b.mu.Unlock()

		switch env.Event {
		case eventJoin:
			var p JoinPayload
			if json.Unmarshal(env.Data, &p) != nil {
				continue
			}
			c.room, c.name = p.Room, p.User.DisplayName

			b.mu.Lock()
			if b.rooms[p.Room] == nil {
				b.rooms[p.Room] = make(map[*relayClient]bool)
			}
			b.rooms[p.Room][c] = true
			b.mu.Unlock()

			b.broadcast(p.Room, eventStatus, map[string]string{"msg": c.name + " has entered the room."})
		case eventMessage:
			var p SendPayload
			if json.Unmarshal(env.Data, &p) != nil {
				continue
			}
			b.broadcast(p.Room, eventMessage, map[string]any{"user": p.User, "msg": p.Msg})
		case eventLeave:
			var p LeavePayload
			if json.Unmarshal(env.Data, &p) != nil {
				continue
			}
			b.mu.Lock()
			delete(b.rooms[p.Room], c)
			b.mu.Unlock()

			b.broadcast(p.Room, eventStatus, map[string]string{"msg": p.User.DisplayName + " has left the room."})
		}
	}
}

func (b *fakeBackend) broadcast(room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.t.Errorf("marshal %s: %v", event, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.rooms[room] {
		select {
		case c.send <- Envelope{Event: event, Data: data}:
		default:
		}
	}
}

// push queues a frame with an arbitrary payload to every member of room.
func (b *fakeBackend) push(room, event, data string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.rooms[room] {
		c.send <- Envelope{Event: event, Data: json.RawMessage(data)}
	}
}

// members counts the clients joined to room.
func (b *fakeBackend) members(room string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.rooms[room])
}

// dropAll closes every relay connection.
func (b *fakeBackend) dropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, members := range b.rooms {
		for c := range members {
			_ = c.conn.Close()
		}
	}
}

func (c *relayClient) writePump() {
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

func (b *fakeBackend) issue(id int, username string) string {
	token := userToken(b.t, id, username)

	b.mu.Lock()
	b.tokens[token] = username
	b.mu.Unlock()

	return token
}

func (b *fakeBackend) authorized(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	b.mu.Lock()
	defer b.mu.Unlock()

	b.authSeen = append(b.authSeen, r.Header.Get("Authorization"))
	name, ok := b.tokens[token]
	return name, ok
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Please provide email and password"})
		return
	}
	if req.Email != "alice@example.com" || req.Password != "hunter2" {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: b.issue(7, "alice")})
}

func (b *fakeBackend) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Please provide username, email, and password"})
		return
	}
	if req.Username == "alice" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Username already exists"})
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: b.issue(8, req.Username)})
}

func (b *fakeBackend) listBlogs(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	b.mu.Lock()
	defer b.mu.Unlock()

	writeJSON(w, http.StatusOK, append([]Blog{}, b.blogs...))
}

func (b *fakeBackend) createBlog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	name, ok := b.authorized(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Missing Authorization Header"})
		return
	}

	var req BlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Please provide title and content for the blog"})
		return
	}

	b.mu.Lock()
	b.blogs = append([]Blog{{ID: len(b.blogs) + 1, Title: req.Title, Content: req.Content, Author: name, CreatedAt: "2026-10-17 12:00:00"}}, b.blogs...)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, messageResponse{Message: "Blog created successfully"})
}

func (b *fakeBackend) listPlanets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	out := make([]Exoplanet, 0, len(b.planets))
	for _, p := range b.planets {
		p.Quiz = nil
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *fakeBackend) findPlanet(ps httprouter.Params) (*Exoplanet, bool) {
	id, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		return nil, false
	}
	for i := range b.planets {
		if b.planets[i].ID == id {
			return &b.planets[i], true
		}
	}
	return nil, false
}

func (b *fakeBackend) getPlanet(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, ok := b.findPlanet(ps)
	if !ok {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Exoplanet not found"})
		return
	}
	out := *p
	if out.Quiz == nil {
		out.Quiz = []Question{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *fakeBackend) complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := b.authorized(r); !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Missing Authorization Header"})
		return
	}

	p, ok := b.findPlanet(ps)
	if !ok {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Exoplanet not found"})
		return
	}

	var body struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Answers == nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "No answers provided"})
		return
	}

	var wrong []IncorrectAnswer
	for _, q := range p.Quiz {
		key := strconv.Itoa(q.ID)
		if body.Answers[key] != b.answers[key] {
			wrong = append(wrong, IncorrectAnswer{QuestionID: q.ID, CorrectOption: b.answers[key], YourAnswer: body.Answers[key]})
		}
	}

	if len(wrong) > 0 {
		writeJSON(w, http.StatusBadRequest, CompleteResult{
			Message:            "You did not pass the quiz. Please try again.",
			IncorrectQuestions: wrong,
		})
		return
	}

	writeJSON(w, http.StatusOK, CompleteResult{Message: fmt.Sprintf("Successfully became a citizen of %s", p.Name)})
}
