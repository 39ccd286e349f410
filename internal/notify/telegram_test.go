package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/travel-viability/internal/travel"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func scored(c travel.CurrentConditions, stable bool) travel.RunRecord {
	alerts := travel.EvaluateAlerts(c)
	return travel.RunRecord{
		City:     travel.City{Name: "Tokio"},
		Exchange: travel.ExchangeSnapshot{Currency: "JPY", Trend: travel.TrendStable},
		Alerts:   alerts,
		IVV:      travel.CalculateIVV(alerts, c.UVIndex, stable),
	}
}

func TestShouldNotify(t *testing.T) {
	assert.False(t, ShouldNotify(scored(travel.CurrentConditions{TemperatureC: 20, UVIndex: 3}, true)))
	assert.True(t, ShouldNotify(scored(travel.CurrentConditions{TemperatureC: 40, UVIndex: 3}, true)))
	// Two medium alerts, unstable currency and high UV: 20+15+15 = 50, ALTO.
	assert.True(t, ShouldNotify(scored(travel.CurrentConditions{TemperatureC: 20, PrecipitationMm: 9, UVIndex: 9}, false)))
}

func TestNotifyRecordSendsOnlyRelevant(t *testing.T) {
	sender := &fakeSender{}
	n := NewTelegramNotifierWith(sender, 42, zerolog.Nop())

	require.NoError(t, n.NotifyRecord(context.Background(), scored(travel.CurrentConditions{TemperatureC: 20, UVIndex: 3}, true)))
	assert.Empty(t, sender.sent)

	require.NoError(t, n.NotifyRecord(context.Background(), scored(travel.CurrentConditions{TemperatureC: 40, UVIndex: 3}, true)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Temperatura crítica: 40°C")
	assert.Equal(t, tgbotapi.ModeMarkdown, sender.sent[0].ParseMode)
}

func TestNotifyRecordSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	n := NewTelegramNotifierWith(sender, 42, zerolog.Nop())
	err := n.NotifyRecord(context.Background(), scored(travel.CurrentConditions{WindSpeedKmh: 80}, true))
	assert.Error(t, err)
}

func TestDisabledNotifier(t *testing.T) {
	n, err := NewTelegramNotifier("", "", zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, n.NotifyRecord(context.Background(), scored(travel.CurrentConditions{TemperatureC: 40}, true)))
}
