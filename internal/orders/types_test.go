package orders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOrder = `{
  "id": 7,
  "customerName": "Ana",
  "customerPhone": "",
  "status": "preparing",
  "createdAt": "2025-03-01T12:30:00",
  "acceptedAt": null,
  "preparingAt": "2025-03-01T12:34:56.123456",
  "readyAt": null,
  "completedAt": null,
  "items": [
    {"id": 1, "productId": 3, "productName": "Classic Burger", "quantity": 2,
     "customizations": {"extras": "cheese,bacon", "cooking": "medium", "instructions": "no onions", "sauce": ""}},
    {"id": 2, "productId": 9, "productName": "Fries", "quantity": 1, "customizations": {}}
  ]
}`

func TestOrder_DecodesServerPayload(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))

	assert.Equal(t, int64(7), o.ID)
	assert.Equal(t, StatusPreparing, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 3, o.ItemCount())
	assert.Nil(t, o.Feedback)

	burger := o.Items[0]
	assert.Equal(t, List("cheese", "bacon"), burger.Customizations["extras"])
	assert.Equal(t, "no onions", burger.Customizations.Instructions())
	assert.Equal(t, []Option{
		{Name: "cooking", Value: "medium"},
		{Name: "extras", Value: "cheese, bacon"},
	}, burger.Customizations.Options())
	assert.Equal(t, "cooking: medium | extras: cheese, bacon", burger.Customizations.Summary(" | "))

	assert.False(t, o.Items[1].Customizations.HasOptions())
}

func TestOrder_TimestampParsing(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))

	created := o.ParsedCreatedAt()
	assert.Equal(t, time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC), created)

	changed := o.StatusChangedAt()
	assert.Equal(t, 34, changed.Minute())
	assert.Equal(t, 123456000, changed.Nanosecond())

	o.Status = StatusReady
	assert.Equal(t, created, o.StatusChangedAt(), "missing readyAt falls back to createdAt")

	assert.True(t, parseTime("garbage").IsZero())
	assert.False(t, parseTime("2025-03-01T12:30:00Z").IsZero())
}

func TestValue_ArrayAndScalarRoundTrip(t *testing.T) {
	var c Customizations
	require.NoError(t, json.Unmarshal([]byte(`{"extras":["cheese",null,"bacon"],"size":2,"spicy":true,"note":null}`), &c))

	assert.Equal(t, List("cheese", "bacon"), c["extras"])
	assert.Equal(t, Scalar("2"), c["size"])
	assert.Equal(t, Scalar("true"), c["spicy"])
	assert.True(t, c["note"].Empty())

	out, err := json.Marshal(Customizations{"extras": List("cheese"), "size": Scalar("large")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"extras":["cheese"],"size":"large"}`, string(out))
}

func TestValue_RejectsNestedObjects(t *testing.T) {
	var c Customizations
	assert.Error(t, json.Unmarshal([]byte(`{"extras":{"a":1}}`), &c))
}

func TestOrder_Validate(t *testing.T) {
	assert.Error(t, Order{Items: []Item{{ProductName: "x", Quantity: 1}}}.Validate())
	assert.Error(t, Order{ID: 1}.Validate())
	assert.NoError(t, Order{ID: 1, Items: []Item{{ProductName: "x", Quantity: 1}}}.Validate())
	assert.Error(t, Order{ID: 1, Items: []Item{{ProductName: "x", Quantity: 0}}}.Validate())
	assert.Error(t, Order{ID: 1, Items: []Item{{ProductName: "x", Quantity: 1}, {ProductName: "y", Quantity: -2}}}.Validate())
}

func TestOrder_FeedbackEligible(t *testing.T) {
	o := Order{ID: 5, Status: StatusCompleted}
	assert.True(t, o.FeedbackEligible())

	o.Feedback = &Feedback{Rating: 4}
	assert.False(t, o.FeedbackEligible())

	assert.False(t, Order{ID: 6, Status: StatusReady}.FeedbackEligible())
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := Order{
		ID:       1,
		Items:    []Item{{ProductName: "Burger", Quantity: 1, Customizations: Customizations{"extras": List("cheese")}}},
		Feedback: &Feedback{Rating: 5},
	}
	dup := o.Clone()
	dup.Items[0].Quantity = 9
	dup.Items[0].Customizations["extras"].Values[0] = "bacon"
	dup.Feedback.Rating = 1

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Equal(t, "cheese", o.Items[0].Customizations["extras"].Values[0])
	assert.Equal(t, 5, o.Feedback.Rating)
}

func TestSortByNewestAndOldest(t *testing.T) {
	list := []Order{
		{ID: 1, CreatedAt: "2025-03-01T10:00:00"},
		{ID: 2, CreatedAt: "2025-03-01T12:00:00"},
		{ID: 3, CreatedAt: "2025-03-01T12:00:00"},
	}
	SortByNewest(list)
	assert.Equal(t, []int64{3, 2, 1}, ids(list))

	SortByOldest(list)
	assert.Equal(t, []int64{1, 2, 3}, ids(list))
}

func ids(list []Order) []int64 {
	out := make([]int64, len(list))
	for i, o := range list {
		out[i] = o.ID
	}
	return out
}
