package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voicecreate/events"
	"voicecreate/models"
)

type fakeChannel struct {
	guildID    int64
	parentID   int64
	name       string
	text       bool
	stage      bool
	bitrate    int
	userLimit  int
	overwrites map[models.Principal]models.PermissionOverwrite
}

// fakeGateway is an in-memory guild: channels, who is connected where, and
// every mutating call it received
type fakeGateway struct {
	mu sync.Mutex

	nextID       int64
	channels     map[int64]*fakeChannel
	voice        map[int64]int64 // user -> connected channel
	members      map[int64]*models.MemberInfo
	bitrateLimit int

	deleteCalls  []int64
	disconnected []int64
	messages     map[int64][]string
	failOn       map[string]error

	// deleteFailures are returned, in order, by the next DeleteChannel calls;
	// a nil entry lets that call succeed
	deleteFailures []error

	// beforeCreateVoice runs outside the lock before a voice channel is created
	beforeCreateVoice func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:       1000,
		channels:     make(map[int64]*fakeChannel),
		voice:        make(map[int64]int64),
		members:      make(map[int64]*models.MemberInfo),
		bitrateLimit: 96,
		messages:     make(map[int64][]string),
		failOn:       make(map[string]error),
	}
}

func (g *fakeGateway) addVoiceChannel(guildID, channelID, parentID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[channelID] = &fakeChannel{guildID: guildID, parentID: parentID, overwrites: make(map[models.Principal]models.PermissionOverwrite)}
}

func (g *fakeGateway) connect(userID, channelID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.voice[userID] = channelID
}

func (g *fakeGateway) leave(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.voice, userID)
}

// removeOutOfBand deletes a channel without recording a gateway call, like a moderator would
func (g *fakeGateway) removeOutOfBand(channelID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
	for user, ch := range g.voice {
		if ch == channelID {
			delete(g.voice, user)
		}
	}
}

func (g *fakeGateway) channel(id int64) *fakeChannel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.channels[id]
}

func (g *fakeGateway) connectedTo(userID int64) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.voice[userID]
}

func (g *fakeGateway) deletes() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.deleteCalls...)
}

func (g *fakeGateway) fail(method string) error {
	return g.failOn[method]
}

func (g *fakeGateway) newChannel(guildID, parentID int64, name string, text bool) int64 {
	g.nextID++
	g.channels[g.nextID] = &fakeChannel{
		guildID:    guildID,
		parentID:   parentID,
		name:       name,
		text:       text,
		overwrites: make(map[models.Principal]models.PermissionOverwrite),
	}
	return g.nextID
}

func (g *fakeGateway) CreateVoiceChannel(ctx context.Context, guildID, categoryID int64, name string, bitrate, userLimit int, stage bool) (int64, error) {
	if g.beforeCreateVoice != nil {
		g.beforeCreateVoice()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("CreateVoiceChannel"); err != nil {
		return 0, err
	}
	id := g.newChannel(guildID, categoryID, name, false)
	g.channels[id].bitrate = bitrate
	g.channels[id].userLimit = userLimit
	g.channels[id].stage = stage
	return id, nil
}

func (g *fakeGateway) CreateTextChannel(ctx context.Context, guildID, categoryID int64, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("CreateTextChannel"); err != nil {
		return 0, err
	}
	return g.newChannel(guildID, categoryID, name, true), nil
}

func (g *fakeGateway) CreateCategory(ctx context.Context, guildID int64, name string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.newChannel(guildID, 0, name, false), nil
}

func (g *fakeGateway) EditChannel(ctx context.Context, channelID int64, edit models.ChannelEdit) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("EditChannel"); err != nil {
		return err
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return ErrNotFound
	}
	if edit.Name != nil {
		ch.name = *edit.Name
	}
	if edit.UserLimit != nil {
		ch.userLimit = *edit.UserLimit
	}
	if edit.Bitrate != nil {
		ch.bitrate = *edit.Bitrate
	}
	return nil
}

func (g *fakeGateway) DeleteChannel(ctx context.Context, channelID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleteCalls = append(g.deleteCalls, channelID)
	if len(g.deleteFailures) > 0 {
		err := g.deleteFailures[0]
		g.deleteFailures = g.deleteFailures[1:]
		if err != nil {
			return err
		}
	}
	delete(g.channels, channelID)
	return nil
}

func (g *fakeGateway) SetPermissionOverwrite(ctx context.Context, channelID int64, overwrite models.PermissionOverwrite) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("SetPermissionOverwrite"); err != nil {
		return err
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return ErrNotFound
	}
	ch.overwrites[overwrite.Target] = overwrite
	return nil
}

func (g *fakeGateway) MoveMember(ctx context.Context, guildID, userID, channelID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail("MoveMember"); err != nil {
		return err
	}
	if _, ok := g.voice[userID]; !ok {
		return fmt.Errorf("member %d is not connected to voice", userID)
	}
	if _, ok := g.channels[channelID]; !ok {
		return ErrNotFound
	}
	g.voice[userID] = channelID
	return nil
}

func (g *fakeGateway) DisconnectMember(ctx context.Context, guildID, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.voice, userID)
	g.disconnected = append(g.disconnected, userID)
	return nil
}

func (g *fakeGateway) ChannelMemberIDs(ctx context.Context, guildID, channelID int64) ([]int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return nil, ErrNotFound
	}
	var ids []int64
	for user, ch := range g.voice {
		if ch == channelID {
			ids = append(ids, user)
		}
	}
	return ids, nil
}

func (g *fakeGateway) ChannelParentID(ctx context.Context, channelID int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return 0, ErrNotFound
	}
	return ch.parentID, nil
}

func (g *fakeGateway) GuildMember(ctx context.Context, guildID, userID int64) (*models.MemberInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	member, ok := g.members[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return member, nil
}

func (g *fakeGateway) GuildBitrateLimit(ctx context.Context, guildID int64) (int, error) {
	return g.bitrateLimit, nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, channelID int64, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages[channelID] = append(g.messages[channelID], content)
	return nil
}

type channelKey struct {
	guildID   int64
	channelID int64
}

// memoryStore is a TrackingStore over maps with one lock standing in for a transaction
type memoryStore struct {
	mu      sync.Mutex
	voices  map[channelKey]int64
	texts   map[channelKey]models.TrackedTextChannel // keyed by voice channel
	history []models.TrackedChannelHistory
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		voices: make(map[channelKey]int64),
		texts:  make(map[channelKey]models.TrackedTextChannel),
	}
}

func (s *memoryStore) CreateVoiceChannel(ctx context.Context, guildID, ownerID, voiceChannelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channelKey{guildID, voiceChannelID}
	if _, ok := s.voices[key]; ok {
		return ErrDuplicateKey
	}
	s.voices[key] = ownerID
	return nil
}

func (s *memoryStore) PairTextChannel(ctx context.Context, guildID, ownerID, voiceChannelID, textChannelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channelKey{guildID, voiceChannelID}
	if _, ok := s.voices[key]; !ok {
		return ErrNotFound
	}
	if _, ok := s.texts[key]; ok {
		return ErrAlreadyPaired
	}
	s.texts[key] = models.TrackedTextChannel{GuildID: guildID, VoiceChannelID: voiceChannelID, TextChannelID: textChannelID, OwnerID: ownerID}
	return nil
}

func (s *memoryStore) GetOwner(ctx context.Context, guildID, channelID int64) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.voices[channelKey{guildID, channelID}]; ok {
		return &owner, nil
	}
	for key, text := range s.texts {
		if key.guildID == guildID && text.TextChannelID == channelID {
			owner := text.OwnerID
			return &owner, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) TransferOwnership(ctx context.Context, guildID, voiceChannelID, fromOwnerID, toOwnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channelKey{guildID, voiceChannelID}
	owner, ok := s.voices[key]
	switch {
	case !ok:
		return ErrNotFound
	case owner == toOwnerID:
		return nil
	case owner != fromOwnerID:
		return ErrOwnerChanged
	}
	s.voices[key] = toOwnerID
	if text, ok := s.texts[key]; ok {
		text.OwnerID = toOwnerID
		s.texts[key] = text
	}
	return nil
}

func (s *memoryStore) Teardown(ctx context.Context, guildID, voiceChannelID int64, textChannelID *int64) (*models.TrackedChannelHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channelKey{guildID, voiceChannelID}
	owner, hasVoice := s.voices[key]
	text, hasText := s.texts[key]
	if !hasVoice && !hasText {
		return nil, nil
	}
	history := models.TrackedChannelHistory{GuildID: guildID, VoiceChannelID: voiceChannelID, OwnerID: owner, Timestamp: time.Now()}
	if hasText {
		id := text.TextChannelID
		history.TextChannelID = &id
		if !hasVoice {
			history.OwnerID = text.OwnerID
		}
	}
	s.history = append(s.history, history)
	delete(s.voices, key)
	delete(s.texts, key)
	return &history, nil
}

func (s *memoryStore) GetTextChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.TrackedTextChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.texts[channelKey{guildID, voiceChannelID}]
	if !ok {
		return nil, nil
	}
	return &text, nil
}

func (s *memoryStore) ListTrackedVoiceChannelIDs(ctx context.Context, guildID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for key := range s.voices {
		if key.guildID == guildID {
			ids = append(ids, key.channelID)
		}
	}
	return ids, nil
}

func (s *memoryStore) ListByOwner(ctx context.Context, guildID, ownerID int64) ([]*models.TrackedVoiceChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.TrackedVoiceChannel
	for key, owner := range s.voices {
		if key.guildID == guildID && owner == ownerID {
			result = append(result, &models.TrackedVoiceChannel{GuildID: guildID, VoiceChannelID: key.channelID, OwnerID: owner})
		}
	}
	return result, nil
}

func (s *memoryStore) ListTrackedChannels(ctx context.Context, guildID int64) ([]*models.TrackedChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*models.TrackedChannel
	for key, owner := range s.voices {
		if key.guildID != guildID {
			continue
		}
		tc := &models.TrackedChannel{Voice: models.TrackedVoiceChannel{GuildID: guildID, VoiceChannelID: key.channelID, OwnerID: owner}}
		if text, ok := s.texts[key]; ok {
			t := text
			tc.Text = &t
		}
		result = append(result, tc)
	}
	return result, nil
}

func (s *memoryStore) ListGuildIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]bool)
	var ids []int64
	for key := range s.voices {
		if !seen[key.guildID] {
			seen[key.guildID] = true
			ids = append(ids, key.guildID)
		}
	}
	return ids, nil
}

func (s *memoryStore) voiceCount(guildID int64) int {
	ids, _ := s.ListTrackedVoiceChannelIDs(context.Background(), guildID)
	return len(ids)
}

func (s *memoryStore) historyRows() []models.TrackedChannelHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TrackedChannelHistory(nil), s.history...)
}

// layeredResolver resolves from in-memory layers with the production merge
type layeredResolver struct {
	users      map[int64]*models.UserSettings
	categories map[int64]*models.CategorySettings
}

func (r *layeredResolver) Resolve(ctx context.Context, guildID, categoryID, userID int64, displayName string) *models.ChannelSettings {
	return MergeChannelSettings(r.users[userID], r.categories[categoryID], nil, displayName)
}

type staticCreateChannels map[int64]*models.CreateChannel

func (s staticCreateChannels) GetCreateChannel(ctx context.Context, guildID, voiceChannelID int64) (*models.CreateChannel, error) {
	ch, ok := s[voiceChannelID]
	if !ok || ch.GuildID != guildID {
		return nil, nil
	}
	return ch, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) ofType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type staticAdmins map[int64]bool

func (a staticAdmins) IsAdmin(ctx context.Context, guildID, userID int64) (bool, error) {
	return a[userID], nil
}
