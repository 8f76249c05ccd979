package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, DashboardSourceLive, cfg.Dashboard.Source)
	assert.Equal(t, "0 6 * * *", cfg.Reminders.Cron)
	assert.Equal(t, 15*time.Minute, cfg.Schedule.CacheTTL)
	assert.Equal(t, time.UTC, cfg.Schedule.Location())
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DASHBOARD_SOURCE", " Fixtures ")
	v.Set("SCHEDULE_TIMEZONE", "Asia/Jakarta")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("JWT_EXPIRATION", "not-a-duration")

	cfg := fromViper(v)

	assert.Equal(t, DashboardSourceFixtures, cfg.Dashboard.Source)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "Asia/Jakarta", cfg.Schedule.Location().String())
}

func TestScheduleLocationFallsBackOnUnknownZone(t *testing.T) {
	assert.Equal(t, time.UTC, ScheduleConfig{Timezone: "Mars/Olympus"}.Location())
}
