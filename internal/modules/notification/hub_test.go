package notification

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsequip/internal/domain"
	"sportsequip/internal/repository"
)

func TestHub_PushesOnlyToRecipients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil, nil)
	defer hub.Close()

	router := gin.New()
	router.GET("/ws/:id", func(c *gin.Context) {
		id := int64(1)
		if c.Param("id") == "2" {
			id = 2
		}
		_ = hub.Serve(c.Writer, c.Request, repository.Audience{Kind: domain.PrincipalStudent, ID: id})
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	one, _, err := websocket.DefaultDialer.Dial(base+"/ws/1", nil)
	require.NoError(t, err)
	defer one.Close()
	two, _, err := websocket.DefaultDialer.Dial(base+"/ws/2", nil)
	require.NoError(t, err)
	defer two.Close()

	require.Eventually(t, func() bool { return hub.Connected() == 2 }, time.Second, 10*time.Millisecond)

	n := &domain.Notification{ID: 5, Title: "Request Approved", IsActive: true}
	n.SetRecipients(domain.RecipientSelector{Students: []int64{1}})
	hub.Publish(n)

	require.NoError(t, one.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := one.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, EventNotification, ev.Type)
	assert.Equal(t, "Request Approved", ev.Payload["title"])

	require.NoError(t, two.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = two.ReadMessage()
	assert.Error(t, err, "student 2 is not a recipient")
}

func TestHub_SkipsInactive(t *testing.T) {
	hub := NewHub(nil, nil)
	n := &domain.Notification{ID: 1, IsActive: false, RecipientsAll: true}
	hub.Publish(n)
	assert.Zero(t, hub.Connected())
}
