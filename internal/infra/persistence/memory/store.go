// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mnyama/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Species aliases domain.Species for in-memory persistence operations.
	Species = domain.Species
	// Creature aliases domain.Creature.
	Creature = domain.Creature
	// Habitat aliases domain.Habitat.
	Habitat = domain.Habitat
	// Membership aliases domain.Membership.
	Membership = domain.Membership
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	species     map[string]Species
	creatures   map[string]Creature
	habitats    map[string]Habitat
	memberships map[domain.MembershipKey]Membership
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Species     map[string]Species  `json:"species"`
	Creatures   map[string]Creature `json:"creatures"`
	Habitats    map[string]Habitat  `json:"habitats"`
	Memberships []Membership        `json:"memberships"`
}

func newMemoryState() memoryState {
	return memoryState{
		species:     make(map[string]Species),
		creatures:   make(map[string]Creature),
		habitats:    make(map[string]Habitat),
		memberships: make(map[domain.MembershipKey]Membership),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Species:     make(map[string]Species, len(state.species)),
		Creatures:   make(map[string]Creature, len(state.creatures)),
		Habitats:    make(map[string]Habitat, len(state.habitats)),
		Memberships: make([]Membership, 0, len(state.memberships)),
	}
	for k, v := range state.species {
		s.Species[k] = v
	}
	for k, v := range state.creatures {
		s.Creatures[k] = cloneCreature(v)
	}
	for k, v := range state.habitats {
		s.Habitats[k] = v
	}
	for _, m := range state.memberships {
		s.Memberships = append(s.Memberships, m)
	}
	sortMemberships(s.Memberships)
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Species {
		state.species[k] = v
	}
	for k, v := range s.Creatures {
		state.creatures[k] = cloneCreature(v)
	}
	for k, v := range s.Habitats {
		state.habitats[k] = v
	}
	for _, m := range s.Memberships {
		state.memberships[m.Key()] = m
	}
	return state
}

// migrateSnapshot initialises missing buckets, applies species defaults and
// drops records whose references no longer resolve.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Species == nil {
		snapshot.Species = map[string]Species{}
	}
	if snapshot.Creatures == nil {
		snapshot.Creatures = map[string]Creature{}
	}
	if snapshot.Habitats == nil {
		snapshot.Habitats = map[string]Habitat{}
	}

	for id, sp := range snapshot.Species {
		sp.ApplyDefaults()
		snapshot.Species[id] = sp
	}
	for id, c := range snapshot.Creatures {
		if _, ok := snapshot.Species[c.SpeciesID]; !ok {
			delete(snapshot.Creatures, id)
		}
	}

	seen := make(map[domain.MembershipKey]struct{}, len(snapshot.Memberships))
	kept := make([]Membership, 0, len(snapshot.Memberships))
	for _, m := range snapshot.Memberships {
		if _, ok := snapshot.Creatures[m.CreatureID]; !ok {
			continue
		}
		if _, ok := snapshot.Habitats[m.HabitatID]; !ok {
			continue
		}
		if _, dup := seen[m.Key()]; dup {
			continue
		}
		seen[m.Key()] = struct{}{}
		kept = append(kept, m)
	}
	sortMemberships(kept)
	snapshot.Memberships = kept
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.species {
		cloned.species[k] = v
	}
	for k, v := range s.creatures {
		cloned.creatures[k] = cloneCreature(v)
	}
	for k, v := range s.habitats {
		cloned.habitats[k] = v
	}
	for k, v := range s.memberships {
		cloned.memberships[k] = v
	}
	return cloned
}

func cloneCreature(c Creature) Creature {
	if c.ImageRef != nil {
		ref := *c.ImageRef
		c.ImageRef = &ref
	}
	return c
}

func sortMemberships(ms []Membership) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].HabitatID != ms[j].HabitatID {
			return ms[i].HabitatID < ms[j].HabitatID
		}
		return ms[i].CreatureID < ms[j].CreatureID
	})
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	commit CommitHook
}

// CommitHook receives the state a transaction is about to commit. Returning
// an error aborts the commit and leaves the previous state in place.
type CommitHook func(ctx context.Context, next Snapshot) error

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetCommitHook installs fn to run before every commit; nil removes it.
func (s *Store) SetCommitHook(fn CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit = fn
}

// SetNowFunc overrides the clock, mainly for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListSpecies() []Species {
	return listSpecies(v.state)
}

func (v transactionView) ListCreatures() []Creature {
	return listCreatures(v.state)
}

func (v transactionView) ListHabitats() []Habitat {
	return listHabitats(v.state)
}

func (v transactionView) ListMemberships() []Membership {
	return listMemberships(v.state)
}

func (v transactionView) FindSpecies(id string) (Species, bool) {
	sp, ok := v.state.species[id]
	return sp, ok
}

func (v transactionView) FindCreature(id string) (Creature, bool) {
	c, ok := v.state.creatures[id]
	if !ok {
		return Creature{}, false
	}
	return cloneCreature(c), true
}

func (v transactionView) FindHabitat(id string) (Habitat, bool) {
	h, ok := v.state.habitats[id]
	return h, ok
}

// HabitatOccupants returns the creatures holding a membership in habitatID, ordered by id.
func (v transactionView) HabitatOccupants(habitatID string) []Creature {
	var out []Creature
	for key := range v.state.memberships {
		if key.HabitatID != habitatID {
			continue
		}
		if c, ok := v.state.creatures[key.CreatureID]; ok {
			out = append(out, cloneCreature(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreatureHabitats returns the habitats a creature belongs to, ordered by id.
func (v transactionView) CreatureHabitats(creatureID string) []Habitat {
	var out []Habitat
	for key := range v.state.memberships {
		if key.CreatureID != creatureID {
			continue
		}
		if h, ok := v.state.habitats[key.HabitatID]; ok {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) IsMember(creatureID, habitatID string) bool {
	_, ok := v.state.memberships[domain.MembershipKey{CreatureID: creatureID, HabitatID: habitatID}]
	return ok
}

func listSpecies(state *memoryState) []Species {
	out := make([]Species, 0, len(state.species))
	for _, sp := range state.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listCreatures(state *memoryState) []Creature {
	out := make([]Creature, 0, len(state.creatures))
	for _, c := range state.creatures {
		out = append(out, cloneCreature(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listHabitats(state *memoryState) []Habitat {
	out := make([]Habitat, 0, len(state.habitats))
	for _, h := range state.habitats {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func listMemberships(state *memoryState) []Membership {
	out := make([]Membership, 0, len(state.memberships))
	for _, m := range state.memberships {
		out = append(out, m)
	}
	sortMemberships(out)
	return out
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.commit != nil {
		if err := s.commit(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindSpecies(id string) (Species, bool) {
	sp, ok := tx.state.species[id]
	return sp, ok
}

func (tx *transaction) FindCreature(id string) (Creature, bool) {
	c, ok := tx.state.creatures[id]
	if !ok {
		return Creature{}, false
	}
	return cloneCreature(c), true
}

func (tx *transaction) FindHabitat(id string) (Habitat, bool) {
	h, ok := tx.state.habitats[id]
	return h, ok
}

func (tx *transaction) checkSpeciesName(id, name string) error {
	for _, existing := range tx.state.species {
		if existing.ID != id && sameName(existing.Name, name) {
			return domain.ValidationError{Entity: domain.EntitySpecies, Field: "name", Message: fmt.Sprintf("species %q already exists", name)}
		}
	}
	return nil
}

func (tx *transaction) checkHabitatName(id, name string) error {
	for _, existing := range tx.state.habitats {
		if existing.ID != id && sameName(existing.Name, name) {
			return domain.ValidationError{Entity: domain.EntityHabitat, Field: "name", Message: fmt.Sprintf("habitat %q already exists", name)}
		}
	}
	return nil
}

// CreateSpecies stores a new species within the transaction.
func (tx *transaction) CreateSpecies(sp Species) (Species, error) {
	if sp.ID == "" {
		sp.ID = tx.store.newID()
	}
	if _, exists := tx.state.species[sp.ID]; exists {
		return Species{}, fmt.Errorf("species %q already exists", sp.ID)
	}
	sp.Name = strings.TrimSpace(sp.Name)
	sp.ApplyDefaults()
	if err := sp.Validate(); err != nil {
		return Species{}, err
	}
	if err := tx.checkSpeciesName(sp.ID, sp.Name); err != nil {
		return Species{}, err
	}
	sp.CreatedAt = tx.now
	sp.UpdatedAt = tx.now
	tx.state.species[sp.ID] = sp
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionCreate, After: sp})
	return sp, nil
}

// UpdateSpecies mutates a species using the provided mutator function.
func (tx *transaction) UpdateSpecies(id string, mutator func(*Species) error) (Species, error) {
	current, ok := tx.state.species[id]
	if !ok {
		return Species{}, domain.NotFoundError{Entity: domain.EntitySpecies, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Species{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.Name = strings.TrimSpace(current.Name)
	if err := current.Validate(); err != nil {
		return Species{}, err
	}
	if err := tx.checkSpeciesName(id, current.Name); err != nil {
		return Species{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.species[id] = current
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteSpecies removes a species that no creature references.
func (tx *transaction) DeleteSpecies(id string) error {
	current, ok := tx.state.species[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySpecies, ID: id}
	}
	count := 0
	for _, c := range tx.state.creatures {
		if c.SpeciesID == id {
			count++
		}
	}
	if count > 0 {
		return domain.InUseError{Entity: domain.EntitySpecies, ID: id, Dependent: domain.EntityCreature, Count: count}
	}
	delete(tx.state.species, id)
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateCreature stores a new creature; its species must already exist.
func (tx *transaction) CreateCreature(c Creature) (Creature, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.creatures[c.ID]; exists {
		return Creature{}, fmt.Errorf("creature %q already exists", c.ID)
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return Creature{}, err
	}
	if _, ok := tx.state.species[c.SpeciesID]; !ok {
		return Creature{}, domain.NotFoundError{Entity: domain.EntitySpecies, ID: c.SpeciesID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.creatures[c.ID] = cloneCreature(c)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionCreate, After: cloneCreature(c)})
	return cloneCreature(c), nil
}

// UpdateCreature mutates an existing creature.
func (tx *transaction) UpdateCreature(id string, mutator func(*Creature) error) (Creature, error) {
	current, ok := tx.state.creatures[id]
	if !ok {
		return Creature{}, domain.NotFoundError{Entity: domain.EntityCreature, ID: id}
	}
	before := cloneCreature(current)
	if err := mutator(&current); err != nil {
		return Creature{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.Name = strings.TrimSpace(current.Name)
	if err := current.Validate(); err != nil {
		return Creature{}, err
	}
	if _, ok := tx.state.species[current.SpeciesID]; !ok {
		return Creature{}, domain.NotFoundError{Entity: domain.EntitySpecies, ID: current.SpeciesID}
	}
	current.UpdatedAt = tx.now
	tx.state.creatures[id] = cloneCreature(current)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionUpdate, Before: before, After: cloneCreature(current)})
	return cloneCreature(current), nil
}

// DeleteCreature removes a creature that holds no memberships.
func (tx *transaction) DeleteCreature(id string) error {
	current, ok := tx.state.creatures[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCreature, ID: id}
	}
	count := 0
	for key := range tx.state.memberships {
		if key.CreatureID == id {
			count++
		}
	}
	if count > 0 {
		return domain.InUseError{Entity: domain.EntityCreature, ID: id, Dependent: domain.EntityMembership, Count: count}
	}
	delete(tx.state.creatures, id)
	tx.recordChange(Change{Entity: domain.EntityCreature, Action: domain.ActionDelete, Before: cloneCreature(current)})
	return nil
}

// CreateHabitat stores a new habitat.
func (tx *transaction) CreateHabitat(h Habitat) (Habitat, error) {
	if h.ID == "" {
		h.ID = tx.store.newID()
	}
	if _, exists := tx.state.habitats[h.ID]; exists {
		return Habitat{}, fmt.Errorf("habitat %q already exists", h.ID)
	}
	h.Name = strings.TrimSpace(h.Name)
	h.Biome = strings.TrimSpace(h.Biome)
	if err := h.Validate(); err != nil {
		return Habitat{}, err
	}
	if err := tx.checkHabitatName(h.ID, h.Name); err != nil {
		return Habitat{}, err
	}
	h.CreatedAt = tx.now
	h.UpdatedAt = tx.now
	tx.state.habitats[h.ID] = h
	tx.recordChange(Change{Entity: domain.EntityHabitat, Action: domain.ActionCreate, After: h})
	return h, nil
}

// UpdateHabitat mutates an existing habitat. Capacity may drop below the
// current occupancy here; callers decide whether that needs confirmation.
func (tx *transaction) UpdateHabitat(id string, mutator func(*Habitat) error) (Habitat, error) {
	current, ok := tx.state.habitats[id]
	if !ok {
		return Habitat{}, domain.NotFoundError{Entity: domain.EntityHabitat, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Habitat{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.Name = strings.TrimSpace(current.Name)
	current.Biome = strings.TrimSpace(current.Biome)
	if err := current.Validate(); err != nil {
		return Habitat{}, err
	}
	if err := tx.checkHabitatName(id, current.Name); err != nil {
		return Habitat{}, err
	}
	current.UpdatedAt = tx.now
	tx.state.habitats[id] = current
	tx.recordChange(Change{Entity: domain.EntityHabitat, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteHabitat removes an unoccupied habitat.
func (tx *transaction) DeleteHabitat(id string) error {
	current, ok := tx.state.habitats[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityHabitat, ID: id}
	}
	count := 0
	for key := range tx.state.memberships {
		if key.HabitatID == id {
			count++
		}
	}
	if count > 0 {
		return domain.InUseError{Entity: domain.EntityHabitat, ID: id, Dependent: domain.EntityMembership, Count: count}
	}
	delete(tx.state.habitats, id)
	tx.recordChange(Change{Entity: domain.EntityHabitat, Action: domain.ActionDelete, Before: current})
	return nil
}

// AddMembership records that a creature occupies a habitat. Capacity and
// diet checks are left to the caller and the registered rules.
func (tx *transaction) AddMembership(creatureID, habitatID string) (Membership, error) {
	if _, ok := tx.state.creatures[creatureID]; !ok {
		return Membership{}, domain.NotFoundError{Entity: domain.EntityCreature, ID: creatureID}
	}
	if _, ok := tx.state.habitats[habitatID]; !ok {
		return Membership{}, domain.NotFoundError{Entity: domain.EntityHabitat, ID: habitatID}
	}
	key := domain.MembershipKey{CreatureID: creatureID, HabitatID: habitatID}
	if _, exists := tx.state.memberships[key]; exists {
		return Membership{}, domain.ValidationError{Entity: domain.EntityMembership, Message: fmt.Sprintf("membership %s already exists", key)}
	}
	m := Membership{CreatureID: creatureID, HabitatID: habitatID, AssignedAt: tx.now}
	tx.state.memberships[key] = m
	tx.recordChange(Change{Entity: domain.EntityMembership, Action: domain.ActionCreate, After: m})
	return m, nil
}

// RemoveMembership deletes an existing membership.
func (tx *transaction) RemoveMembership(creatureID, habitatID string) error {
	key := domain.MembershipKey{CreatureID: creatureID, HabitatID: habitatID}
	current, ok := tx.state.memberships[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityMembership, ID: key.String()}
	}
	delete(tx.state.memberships, key)
	tx.recordChange(Change{Entity: domain.EntityMembership, Action: domain.ActionDelete, Before: current})
	return nil
}

// GetSpecies retrieves a species by ID.
func (s *Store) GetSpecies(id string) (Species, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.state.species[id]
	return sp, ok
}

// ListSpecies returns all species ordered by id.
func (s *Store) ListSpecies() []Species {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSpecies(&s.state)
}

// GetCreature retrieves a creature by ID.
func (s *Store) GetCreature(id string) (Creature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.creatures[id]
	if !ok {
		return Creature{}, false
	}
	return cloneCreature(c), true
}

// ListCreatures returns all creatures ordered by id.
func (s *Store) ListCreatures() []Creature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCreatures(&s.state)
}

// GetHabitat retrieves a habitat by ID.
func (s *Store) GetHabitat(id string) (Habitat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.state.habitats[id]
	return h, ok
}

// ListHabitats returns all habitats ordered by id.
func (s *Store) ListHabitats() []Habitat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listHabitats(&s.state)
}

// ListMemberships returns all memberships ordered by habitat then creature.
func (s *Store) ListMemberships() []Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMemberships(&s.state)
}
