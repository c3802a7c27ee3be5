package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// RewardNotifier pushes reward announcements to the external notification
// service. Delivery is fire-and-forget: failures are logged and swallowed,
// never propagated into the progression transaction that triggered them.
type RewardNotifier struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewRewardNotifier(baseURL, token string) *RewardNotifier {
	return &RewardNotifier{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyLevelUp announces a level-up.
func (n *RewardNotifier) NotifyLevelUp(externalUserID string, level int) {
	n.post("level_up", map[string]interface{}{
		"user_id": externalUserID,
		"level":   level,
		"message": fmt.Sprintf("You reached level %d!", level),
	})
}

// NotifyBadge announces a freshly awarded badge.
func (n *RewardNotifier) NotifyBadge(externalUserID, code, name string) {
	n.post("badge_awarded", map[string]interface{}{
		"user_id": externalUserID,
		"code":    code,
		"message": fmt.Sprintf("You earned: %q!", name),
	})
}

func (n *RewardNotifier) post(event string, payload map[string]interface{}) {
	if n.BaseURL == "" {
		return
	}
	payload["event"] = event

	jsonData, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/notifications/events", n.BaseURL)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("⚠️ notifier: building %s request failed: %v", event, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.Token)

	resp, err := n.Client.Do(req)
	if err != nil {
		log.Printf("⚠️ notifier: %s delivery failed: %v", event, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("⚠️ notifier: %s returned %d", event, resp.StatusCode)
	}
}
