package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/pressroom-backend/internal/platform/envutil"
	"github.com/yungbote/pressroom-backend/internal/platform/logger"
)

type Config struct {
	Port string

	// Apps that get a scheduled news monitor.
	MonitorApps []string
	MonitorCron string
}

func LoadConfig(log *logger.Logger) Config {
	apps := []string{"placement", "relocation", "jobs"}
	if raw := strings.TrimSpace(envutil.GetEnv("MONITOR_APPS", "", log)); raw != "" {
		apps = apps[:0]
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				apps = append(apps, a)
			}
		}
	}
	return Config{
		Port:        envutil.GetEnv("PORT", "8080", log),
		MonitorApps: apps,
		MonitorCron: envutil.GetEnv("MONITOR_CRON", "0 */4 * * *", log),
	}
}

// RequireEnv exits with status 2 when a required key is absent, so deploys
// fail loudly instead of limping along half-configured.
func RequireEnv(log *logger.Logger, keys ...string) {
	for _, key := range keys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			if log != nil {
				log.Error("required environment variable missing", "key", key)
			} else {
				fmt.Fprintf(os.Stderr, "required environment variable missing: %s\n", key)
			}
			os.Exit(2)
		}
	}
}
