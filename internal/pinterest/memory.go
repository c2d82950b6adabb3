package pinterest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInjectedFailure is returned by MemoryClient calls scheduled to fail with FailNext.
var ErrInjectedFailure = errors.New("injected failure")

// Fixture is the YAML document backing a MemoryClient.
//
// Example:
//
//	latency: 50ms
//	boards:
//	  - id: b1
//	    name: Recipes
//	pins:
//	  - id: p1
//	    title: Soup
//	    board_id: b1
type Fixture struct {
	// Latency is added to every client call.
	Latency time.Duration `yaml:"latency,omitempty"`

	Boards []Board `yaml:"boards"`
	Pins   []Pin   `yaml:"pins"`
}

// MemoryClient is an in-memory Client for demos, dry runs and tests.
// It is safe for concurrent use.
type MemoryClient struct {
	mu       sync.Mutex
	pins     map[string]Pin
	boards   map[string]Board
	latency  time.Duration
	failures map[string]int
	calls    map[string]int
}

// NewMemoryClient creates a client holding the fixture's pins and boards.
func NewMemoryClient(fixture Fixture) *MemoryClient {
	c := &MemoryClient{
		pins:     make(map[string]Pin, len(fixture.Pins)),
		boards:   make(map[string]Board, len(fixture.Boards)),
		latency:  fixture.Latency,
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	for _, p := range fixture.Pins {
		c.pins[p.ID] = p
	}
	for _, b := range fixture.Boards {
		c.boards[b.ID] = b
	}
	return c
}

// LoadFixture reads a YAML fixture file into a new MemoryClient.
func LoadFixture(path string) (*MemoryClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err = yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	for i, p := range fixture.Pins {
		if p.ID == "" {
			return nil, fmt.Errorf("fixture %s: pin %d has no id", path, i)
		}
	}
	for i, b := range fixture.Boards {
		if b.ID == "" {
			return nil, fmt.Errorf("fixture %s: board %d has no id", path, i)
		}
	}

	return NewMemoryClient(fixture), nil
}

// Fixture returns the current contents, sorted by id.
func (c *MemoryClient) Fixture() Fixture {
	c.mu.Lock()
	defer c.mu.Unlock()

	fixture := Fixture{
		Latency: c.latency,
		Boards:  make([]Board, 0, len(c.boards)),
		Pins:    make([]Pin, 0, len(c.pins)),
	}
	for _, b := range c.boards {
		fixture.Boards = append(fixture.Boards, b)
	}
	for _, p := range c.pins {
		fixture.Pins = append(fixture.Pins, p)
	}
	sort.Slice(fixture.Boards, func(i, j int) bool { return fixture.Boards[i].ID < fixture.Boards[j].ID })
	sort.Slice(fixture.Pins, func(i, j int) bool { return fixture.Pins[i].ID < fixture.Pins[j].ID })
	return fixture
}

// Save writes the current contents to path as YAML.
func (c *MemoryClient) Save(path string) error {
	data, err := yaml.Marshal(c.Fixture())
	if err != nil {
		return fmt.Errorf("failed to marshal fixture: %w", err)
	}

	// Write to temporary file first, then rename for atomicity
	tempPath := filepath.Clean(path) + ".tmp"
	if writeErr := os.WriteFile(tempPath, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write fixture: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, path); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename fixture: %w", renameErr)
	}
	return nil
}

// SetLatency changes the delay added to every call.
func (c *MemoryClient) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// FailNext makes the next n calls touching resource/id fail with ErrInjectedFailure.
func (c *MemoryClient) FailNext(resource, id string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[resource+":"+id] = n
}

// Calls returns how many times method (e.g. "GetPin") has been called.
func (c *MemoryClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// GetPin returns a copy of the pin.
func (c *MemoryClient) GetPin(ctx context.Context, id string) (*Pin, error) {
	if err := c.begin(ctx, "GetPin", ResourcePin, id); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pin, ok := c.pins[id]
	if !ok {
		return nil, notFound(ResourcePin, id)
	}
	return &pin, nil
}

// UpdatePin applies update and returns the new pin.
func (c *MemoryClient) UpdatePin(ctx context.Context, id string, update PinUpdate) (*Pin, error) {
	if err := c.begin(ctx, "UpdatePin", ResourcePin, id); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pin, ok := c.pins[id]
	if !ok {
		return nil, notFound(ResourcePin, id)
	}
	if update.BoardID != nil {
		if _, exists := c.boards[*update.BoardID]; !exists {
			return nil, notFound(ResourceBoard, *update.BoardID)
		}
	}
	update.Apply(&pin)
	c.pins[id] = pin
	return &pin, nil
}

// DeletePin removes the pin.
func (c *MemoryClient) DeletePin(ctx context.Context, id string) error {
	if err := c.begin(ctx, "DeletePin", ResourcePin, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pins[id]; !ok {
		return notFound(ResourcePin, id)
	}
	delete(c.pins, id)
	return nil
}

// GetBoard returns a copy of the board.
func (c *MemoryClient) GetBoard(ctx context.Context, id string) (*Board, error) {
	if err := c.begin(ctx, "GetBoard", ResourceBoard, id); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	board, ok := c.boards[id]
	if !ok {
		return nil, notFound(ResourceBoard, id)
	}
	return &board, nil
}

// UpdateBoard applies update and returns the new board.
func (c *MemoryClient) UpdateBoard(ctx context.Context, id string, update BoardUpdate) (*Board, error) {
	if err := c.begin(ctx, "UpdateBoard", ResourceBoard, id); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	board, ok := c.boards[id]
	if !ok {
		return nil, notFound(ResourceBoard, id)
	}
	update.Apply(&board)
	c.boards[id] = board
	return &board, nil
}

// DeleteBoard removes the board and every pin on it.
func (c *MemoryClient) DeleteBoard(ctx context.Context, id string) error {
	if err := c.begin(ctx, "DeleteBoard", ResourceBoard, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.boards[id]; !ok {
		return notFound(ResourceBoard, id)
	}
	delete(c.boards, id)
	for pinID, pin := range c.pins {
		if pin.BoardID == id {
			delete(c.pins, pinID)
		}
	}
	return nil
}

// begin counts the call, waits out the latency and consumes an injected failure.
func (c *MemoryClient) begin(ctx context.Context, method, resource, id string) error {
	c.mu.Lock()
	c.calls[method]++
	latency := c.latency
	key := resource + ":" + id
	fail := c.failures[key] > 0
	if fail {
		c.failures[key]--
	}
	c.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if fail {
		return fmt.Errorf("%s %s: %w", method, id, ErrInjectedFailure)
	}
	return nil
}
