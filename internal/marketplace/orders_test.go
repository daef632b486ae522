package marketplace

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrderBody(clientID, providerID string) map[string]any {
	return map[string]any{
		"threadId":    uuid.NewString(),
		"taskId":      uuid.NewString(),
		"clientId":    clientID,
		"providerId":  providerID,
		"title":       "Assemble wardrobe",
		"location":    "Berlin",
		"dateTimeISO": "2025-06-01T09:30:00Z",
		"priceEur":    120.5,
	}
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestCreateOrder_EchoesSubmittedFields(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	events := &recordingBroadcaster{}
	e := newTestEcho(newFakeStore(), events)

	body := validOrderBody(client, provider)
	rec := doRequest(t, e, http.MethodPost, "/orders", client, encode(t, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	require.NotNil(t, got.ThreadID)
	assert.Equal(t, body["threadId"], *got.ThreadID)
	assert.Equal(t, body["taskId"], got.TaskID)
	assert.Equal(t, client, got.ClientID)
	assert.Equal(t, provider, got.ProviderID)
	assert.Equal(t, "Assemble wardrobe", got.Title)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Berlin", *got.Location)
	assert.True(t, got.DateTimeISO.Equal(time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, 120.5, got.PriceEur)
	assert.Equal(t, StatusPending, got.Status)

	require.Len(t, events.events, 1)
	assert.Equal(t, EventOrderCreated, events.events[0].eventType)
	assert.Equal(t, *got.ThreadID, events.events[0].threadID)
}

func TestCreateOrder_PriceAsNumericString(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	e := newTestEcho(newFakeStore(), nil)

	body := validOrderBody(client, provider)
	body["priceEur"] = " 45.00 "
	delete(body, "location")
	delete(body, "threadId")

	rec := doRequest(t, e, http.MethodPost, "/orders", provider, encode(t, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 45.0, got.PriceEur)
	assert.Nil(t, got.Location)
	assert.Nil(t, got.ThreadID)
}

func TestCreateOrder_MissingFields(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()

	tests := []struct {
		name   string
		mutate func(b map[string]any)
	}{
		{"missing taskId", func(b map[string]any) { delete(b, "taskId") }},
		{"missing clientId", func(b map[string]any) { delete(b, "clientId") }},
		{"missing providerId", func(b map[string]any) { delete(b, "providerId") }},
		{"blank title", func(b map[string]any) { b["title"] = "   " }},
		{"missing dateTimeISO", func(b map[string]any) { delete(b, "dateTimeISO") }},
		{"missing price", func(b map[string]any) { delete(b, "priceEur") }},
		{"null price", func(b map[string]any) { b["priceEur"] = nil }},
		{"non numeric price", func(b map[string]any) { b["priceEur"] = "cheap" }},
		{"infinite price", func(b map[string]any) { b["priceEur"] = "Infinity" }},
		{"nan price", func(b map[string]any) { b["priceEur"] = "NaN" }},
		{"price object", func(b map[string]any) { b["priceEur"] = map[string]any{"amount": 3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e := newTestEcho(store, nil)
			body := validOrderBody(client, provider)
			tt.mutate(body)

			rec := doRequest(t, e, http.MethodPost, "/orders", client, encode(t, body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())
			assert.Empty(t, store.orders)
		})
	}
}

func TestCreateOrder_MalformedJSON(t *testing.T) {
	user := uuid.NewString()
	e := newTestEcho(newFakeStore(), nil)

	rec := doRequest(t, e, http.MethodPost, "/orders", user, `{"taskId": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())
}

func TestCreateOrder_InvalidDate(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	e := newTestEcho(newFakeStore(), nil)
	body := validOrderBody(client, provider)
	body["dateTimeISO"] = "next tuesday"

	rec := doRequest(t, e, http.MethodPost, "/orders", client, encode(t, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid dateTimeISO"}`, rec.Body.String())
}

func TestCreateOrder_AuthAndParticipation(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	e := newTestEcho(newFakeStore(), nil)
	body := encode(t, validOrderBody(client, provider))

	rec := doRequest(t, e, http.MethodPost, "/orders", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, e, http.MethodPost, "/orders", uuid.NewString(), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateOrder_StoreFailureReturnsMessage(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	store := newFakeStore()
	store.createErr = errors.New("insert order: foreign key violation")
	e := newTestEcho(store, nil)

	rec := doRequest(t, e, http.MethodPost, "/orders", client, encode(t, validOrderBody(client, provider)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"insert order: foreign key violation"}`, rec.Body.String())
}

func TestTransitions_NonexistentOrder(t *testing.T) {
	user := uuid.NewString()
	e := newTestEcho(newFakeStore(), nil)

	for _, action := range []string{"accept", "decline", "complete", "mark-paid"} {
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			rec := doRequest(t, e, http.MethodPost, "/orders/"+id+"/"+action, user, "")
			assert.Equal(t, http.StatusNotFound, rec.Code, action)
			assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String(), action)
		}
	}
}

func TestTransitions_HappyPath(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	thread := uuid.NewString()
	store := newFakeStore()
	events := &recordingBroadcaster{}
	e := newTestEcho(store, events)
	o := store.seedOrder(client, provider, StatusPending, &thread)

	steps := []struct {
		action string
		actor  string
		want   OrderStatus
	}{
		{"accept", provider, StatusAccepted},
		{"complete", client, StatusCompleted},
		{"mark-paid", client, StatusPaid},
	}
	for _, s := range steps {
		rec := doRequest(t, e, http.MethodPost, "/orders/"+o.ID+"/"+s.action, s.actor, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, o.ID, got.ID)
		assert.Equal(t, s.want, got.Status)
	}

	assert.NotNil(t, store.orders[o.ID].PaidAt)
	require.Len(t, events.events, 3)
	for _, ev := range events.events {
		assert.Equal(t, EventOrderUpdated, ev.eventType)
		assert.Equal(t, thread, ev.threadID)
	}
}

func TestTransitions_Decline(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	store := newFakeStore()
	e := newTestEcho(store, nil)

	pending := store.seedOrder(client, provider, StatusPending, nil)
	accepted := store.seedOrder(client, provider, StatusAccepted, nil)

	for _, o := range []*Order{pending, accepted} {
		rec := doRequest(t, e, http.MethodPost, "/orders/"+o.ID+"/decline", provider, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, StatusDeclined, store.orders[o.ID].Status)
	}
}

func TestTransitions_IllegalStatusConflicts(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	store := newFakeStore()
	e := newTestEcho(store, nil)
	declined := store.seedOrder(client, provider, StatusDeclined, nil)

	rec := doRequest(t, e, http.MethodPost, "/orders/"+declined.ID+"/complete", client, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Order cannot complete from status declined", body["error"])
	assert.Equal(t, "declined", body["status"])
	assert.Equal(t, StatusDeclined, store.orders[declined.ID].Status)
}

func TestTransitions_WrongActorIsNotFound(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	store := newFakeStore()
	e := newTestEcho(store, nil)
	o := store.seedOrder(client, provider, StatusPending, nil)

	// only the provider may accept
	rec := doRequest(t, e, http.MethodPost, "/orders/"+o.ID+"/accept", client, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, e, http.MethodPost, "/orders/"+o.ID+"/accept", uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, StatusPending, store.orders[o.ID].Status)
}

func TestTransitions_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.transErr = errors.New("connection reset")
	e := newTestEcho(store, nil)

	rec := doRequest(t, e, http.MethodPost, "/orders/"+uuid.NewString()+"/accept", uuid.NewString(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTransitions_RequireAuth(t *testing.T) {
	e := newTestEcho(newFakeStore(), nil)
	rec := doRequest(t, e, http.MethodPost, "/orders/"+uuid.NewString()+"/accept", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetThreadOrders(t *testing.T) {
	client, provider := uuid.NewString(), uuid.NewString()
	thread, other := uuid.NewString(), uuid.NewString()
	store := newFakeStore()
	e := newTestEcho(store, nil)

	first := store.seedOrder(client, provider, StatusPending, &thread)
	time.Sleep(time.Millisecond)
	second := store.seedOrder(client, provider, StatusAccepted, &thread)
	store.seedOrder(client, provider, StatusPending, &other)

	rec := doRequest(t, e, http.MethodGet, "/threads/"+thread+"/orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)

	rec = doRequest(t, e, http.MethodGet, "/threads/"+uuid.NewString()+"/orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetThreadOrders_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("timeout")
	e := newTestEcho(store, nil)

	rec := doRequest(t, e, http.MethodGet, "/threads/"+uuid.NewString()+"/orders", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch orders"}`, rec.Body.String())
}
