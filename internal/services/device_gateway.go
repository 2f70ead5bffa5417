package services

import (
	"sync"

	"github.com/yungbote/studytrack-backend/internal/logger"
)

// TrackedApp is one external application the tracker knows how to launch.
type TrackedApp struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	StoreURL string `json:"store_url"`
}

// DeviceGateway is the app-presence/launch collaborator.
type DeviceGateway interface {
	IsInstalled(appID string) bool
	// Launch forwards the foreground request to the paired device and
	// reports whether it was dispatched.
	Launch(appID string) bool
	App(appID string) (TrackedApp, bool)
	// ReportInstalled records client-reported install state; the device is
	// the only party that can actually know it.
	ReportInstalled(appID string, installed bool)
}

type registryGateway struct {
	log  *logger.Logger
	apps map[string]TrackedApp

	mu        sync.RWMutex
	installed map[string]bool
}

func NewRegistryGateway(baseLog *logger.Logger, apps []TrackedApp) DeviceGateway {
	byID := make(map[string]TrackedApp, len(apps))
	for _, a := range apps {
		byID[a.ID] = a
	}
	return &registryGateway{
		log:       baseLog.With("service", "RegistryGateway"),
		apps:      byID,
		installed: make(map[string]bool),
	}
}

// DefaultTrackedApps is the built-in registry of supported lecture apps.
func DefaultTrackedApps() []TrackedApp {
	return []TrackedApp{
		{ID: "com.marrow", Name: "Marrow", StoreURL: "https://play.google.com/store/apps/details?id=com.marrow"},
		{ID: "com.prepladder.learningapp", Name: "PrepLadder", StoreURL: "https://play.google.com/store/apps/details?id=com.prepladder.learningapp"},
		{ID: "co.vital.unacademy", Name: "Unacademy", StoreURL: "https://play.google.com/store/apps/details?id=com.unacademyapp"},
	}
}

func (g *registryGateway) IsInstalled(appID string) bool {
	if _, ok := g.apps[appID]; !ok {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.installed[appID]
}

func (g *registryGateway) Launch(appID string) bool {
	if !g.IsInstalled(appID) {
		return false
	}
	g.log.Debug("Launch dispatched", "app_id", appID)
	return true
}

func (g *registryGateway) App(appID string) (TrackedApp, bool) {
	a, ok := g.apps[appID]
	return a, ok
}

func (g *registryGateway) ReportInstalled(appID string, installed bool) {
	g.mu.Lock()
	g.installed[appID] = installed
	g.mu.Unlock()
}
