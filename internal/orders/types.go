package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const serverTimestampLayout = "2006-01-02T15:04:05"

// Order mirrors one element of GET /api/orders.
type Order struct {
	ID            int64     `json:"id"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	Status        Status    `json:"status"`
	Items         []Item    `json:"items"`
	CreatedAt     string    `json:"createdAt"`
	AcceptedAt    string    `json:"acceptedAt,omitempty"`
	PreparingAt   string    `json:"preparingAt,omitempty"`
	ReadyAt       string    `json:"readyAt,omitempty"`
	CompletedAt   string    `json:"completedAt,omitempty"`
	Feedback      *Feedback `json:"feedback,omitempty"`
}

// Item is a single order line.
type Item struct {
	ID             int64          `json:"id,omitempty"`
	ProductID      int64          `json:"productId"`
	ProductName    string         `json:"productName"`
	Quantity       int            `json:"quantity"`
	Customizations Customizations `json:"customizations,omitempty"`
}

// Feedback is the customer's rating of a completed order.
type Feedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

var (
	errMissingID    = errors.New("order id is required")
	errMissingItems = errors.New("order has no items")
	errBadQuantity  = errors.New("item quantity must be positive")
)

// Validate reports whether the order can be held by a store.
func (o Order) Validate() error {
	if o.ID <= 0 {
		return errMissingID
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order %d: %w", o.ID, errMissingItems)
	}
	for i, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("order %d item %d: %w", o.ID, i, errBadQuantity)
		}
	}
	return nil
}

// FeedbackEligible reports whether a feedback prompt should be offered.
func (o Order) FeedbackEligible() bool {
	return o.Status == StatusCompleted && o.Feedback == nil
}

// ItemCount sums item quantities.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (o Order) ParsedCreatedAt() time.Time {
	return parseTime(o.CreatedAt)
}

// StatusChangedAt returns when the order entered its current status, falling
// back to CreatedAt when the server did not record it.
func (o Order) StatusChangedAt() time.Time {
	var raw string
	switch o.Status {
	case StatusPreparing:
		raw = o.PreparingAt
	case StatusReady:
		raw = o.ReadyAt
	case StatusCompleted:
		raw = o.CompletedAt
	}
	if t := parseTime(raw); !t.IsZero() {
		return t
	}
	return o.ParsedCreatedAt()
}

// Clone returns a deep copy so callers can hand orders across goroutines.
func (o Order) Clone() Order {
	dup := o
	if o.Items != nil {
		dup.Items = make([]Item, len(o.Items))
		for i, item := range o.Items {
			item.Customizations = item.Customizations.Clone()
			dup.Items[i] = item
		}
	}
	if o.Feedback != nil {
		fb := *o.Feedback
		dup.Feedback = &fb
	}
	return dup
}

// SortByNewest orders the slice by creation time, newest first, then by id.
func SortByNewest(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].ParsedCreatedAt(), list[j].ParsedCreatedAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return list[i].ID > list[j].ID
	})
}

// SortByOldest orders the slice by creation time, oldest first, then by id.
// The kitchen works orders in arrival order.
func SortByOldest(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].ParsedCreatedAt(), list[j].ParsedCreatedAt()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return list[i].ID < list[j].ID
	})
}

// Value is one customization value. Scalars hold a single entry; List marks
// values that arrived (or must be sent) as a JSON array.
type Value struct {
	Values []string
	List   bool
}

// Scalar builds a single-valued option.
func Scalar(v string) Value {
	return Value{Values: []string{v}}
}

// List builds a sequence option such as extras.
func List(values ...string) Value {
	return Value{Values: append([]string(nil), values...), List: true}
}

// Empty reports whether the value carries nothing worth displaying.
func (v Value) Empty() bool {
	for _, s := range v.Values {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// String joins list values with ", ".
func (v Value) String() string {
	return strings.Join(v.Values, ", ")
}

// MarshalJSON writes lists as arrays and scalars as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.List {
		if v.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Values)
	}
	if len(v.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v.Values[0])
}

// UnmarshalJSON accepts strings, numbers, booleans, null and arrays of those.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*v = Value{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		v.List = true
		v.Values = make([]string, 0, len(raw))
		for _, elem := range raw {
			s, err := scalarText(elem)
			if err != nil {
				return err
			}
			if s != "" {
				v.Values = append(v.Values, s)
			}
		}
		return nil
	}
	s, err := scalarText(trimmed)
	if err != nil {
		return err
	}
	v.Values = []string{s}
	return nil
}

func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if raw[0] == '{' || raw[0] == '[' {
		return "", fmt.Errorf("unsupported customization value %s", string(raw))
	}
	return string(raw), nil
}

// Customizations maps option names to values. The "instructions" key is a
// free-text note rather than a structured option.
type Customizations map[string]Value

const (
	instructionsKey = "instructions"
	extrasKey       = "extras"
)

// UnmarshalJSON decodes the option map. A comma-joined extras string is split
// into a list, matching how the server stores extras.
func (c *Customizations) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if extras, ok := raw[extrasKey]; ok && !extras.List && len(extras.Values) == 1 {
		parts := strings.Split(extras.Values[0], ",")
		list := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		raw[extrasKey] = Value{Values: list, List: true}
	}
	*c = raw
	return nil
}

// Option is a display pair.
type Option struct {
	Name  string
	Value string
}

// Options returns the structured options sorted by name, skipping empty
// values and the instructions note.
func (c Customizations) Options() []Option {
	names := make([]string, 0, len(c))
	for name, value := range c {
		if name == instructionsKey || value.Empty() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Option, 0, len(names))
	for _, name := range names {
		out = append(out, Option{Name: name, Value: c[name].String()})
	}
	return out
}

// Instructions returns the free-text note, if any.
func (c Customizations) Instructions() string {
	return strings.TrimSpace(c[instructionsKey].String())
}

// HasOptions reports whether any structured option or note is present.
func (c Customizations) HasOptions() bool {
	return len(c.Options()) > 0 || c.Instructions() != ""
}

// Summary renders options as "name: value" pairs joined by sep.
func (c Customizations) Summary(sep string) string {
	opts := c.Options()
	parts := make([]string, 0, len(opts))
	for _, opt := range opts {
		parts = append(parts, opt.Name+": "+opt.Value)
	}
	return strings.Join(parts, sep)
}

// Key returns a canonical encoding used to compare customizations.
func (c Customizations) Key() string {
	if len(c) == 0 {
		return "{}"
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%v", map[string]Value(c))
	}
	return string(data)
}

// Clone deep-copies the option map.
func (c Customizations) Clone() Customizations {
	if c == nil {
		return nil
	}
	dup := make(Customizations, len(c))
	for name, value := range c {
		value.Values = append([]string(nil), value.Values...)
		dup[name] = value
	}
	return dup
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(serverTimestampLayout, value, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
