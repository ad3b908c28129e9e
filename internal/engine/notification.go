package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// buildNotification 组装通知意图
// 标题/正文在这里定死，渲染成 LINE flex 还是 MQTT JSON 由 dispatcher 决定
func buildNotification(dep *models.Dependent, kind models.AlertKind, value string, lat, lng *float64, now time.Time) *models.Notification {
	n := &models.Notification{
		EventID:       uuid.New().String(),
		DependentID:   dep.ID,
		DependentName: dep.FullName(),
		Kind:          kind,
		Value:         value,
		Latitude:      lat,
		Longitude:     lng,
		CreatedAt:     now,
	}
	if dep.Caregiver != nil {
		n.LineID = dep.Caregiver.LineID
		n.Phone = dep.Caregiver.Phone
	}

	switch kind {
	case models.AlertZone1:
		n.Title = "Left inner safe zone"
		n.Text = fmt.Sprintf("%s moved away from the safe zone center (%s)", n.DependentName, value)
	case models.AlertNearZone2:
		n.Title = "Approaching outer boundary"
		n.Text = fmt.Sprintf("%s is close to the level-2 safe zone boundary (%s)", n.DependentName, value)
	case models.AlertZone2SOS:
		n.Title = "Outside safe zone!"
		n.Text = fmt.Sprintf("%s has left the safe zone (%s). Location tracking attached.", n.DependentName, value)
	case models.AlertBackToNearZone2:
		n.Title = "Retreating from boundary"
		n.Text = fmt.Sprintf("%s moved back inside the level-2 boundary (%s)", n.DependentName, value)
	case models.AlertBackToZone1:
		n.Title = "Back to watch zone"
		n.Text = fmt.Sprintf("%s walked back into the inner watch zone (%s)", n.DependentName, value)
	case models.AlertBackSafe:
		n.Title = "Back in safe zone"
		n.Text = fmt.Sprintf("%s has returned home safely", n.DependentName)
	case models.AlertHeartCritical:
		n.Title = "Abnormal heart rate"
		n.Text = fmt.Sprintf("%s heart rate is out of range (%s)", n.DependentName, value)
	case models.AlertHeartRecovery:
		n.Title = "Heart rate back to normal"
		n.Text = fmt.Sprintf("%s heart rate returned to the normal range (%s)", n.DependentName, value)
	case models.AlertTempCritical:
		n.Title = "High body temperature"
		n.Text = fmt.Sprintf("%s body temperature is above the threshold (%s)", n.DependentName, value)
	case models.AlertTempRecovery:
		n.Title = "Temperature back to normal"
		n.Text = fmt.Sprintf("%s body temperature is back in the normal range (%s)", n.DependentName, value)
	case models.AlertLocationViewed:
		n.Title = "Location viewed"
		n.Text = fmt.Sprintf("%s has viewed the shared location; emergency mode stops", n.DependentName)
	}

	return n
}

// buildFallNotification 跌倒通知：两种触发方式文案不同
func buildFallNotification(dep *models.Dependent, kind models.AlertKind, manual bool, lat, lng *float64, now time.Time) *models.Notification {
	n := buildNotification(dep, kind, "", lat, lng, now)
	if manual {
		n.Title = "SOS button pressed"
		n.Text = fmt.Sprintf("%s pressed the \"not OK\" button and is asking for help", n.DependentName)
	} else {
		n.Title = "Fall detected"
		n.Text = fmt.Sprintf("%s did not respond within 30 seconds after a fall was detected", n.DependentName)
	}
	return n
}
