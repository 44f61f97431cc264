package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"moodplay/internal/auth"
	"moodplay/internal/catalog"
	"moodplay/internal/config"
	"moodplay/internal/database"
	"moodplay/internal/ngrok"
	"moodplay/internal/player"

	"github.com/sirupsen/logrus"
)

// MusicServer wires the HTTP surface to the catalog, auth, playback session
// and persistence layers.
type MusicServer struct {
	db           *database.Database
	config       *config.Config
	authService  *auth.Service
	catalog      *catalog.Service
	session      *player.Session
	ngrokService *ngrok.Service
	logger       *logrus.Logger
	httpServer   *http.Server
}

// NewMusicServer creates a new server instance with all services wired up.
func NewMusicServer(cfg *config.Config, db *database.Database, logger *logrus.Logger) (*MusicServer, error) {
	ngrokSvc, err := ngrok.NewService(&cfg.Ngrok)
	if err != nil {
		logger.WithError(err).Warn("Ngrok service not available")
		ngrokSvc = nil
	}

	server := &MusicServer{
		db:           db,
		config:       cfg,
		authService:  auth.NewService(db, &cfg.Auth, logger),
		catalog:      catalog.NewService(&cfg.Catalog, logger),
		session:      player.NewSession(logger),
		ngrokService: ngrokSvc,
		logger:       logger,
	}

	return server, nil
}

// Start runs the HTTP server until it fails or the process exits.
func (ms *MusicServer) Start() error {
	handler := ms.buildHandler()

	localAddress := fmt.Sprintf("http://%s", ms.config.GetAddress())
	ms.logger.WithFields(logrus.Fields{
		"port":    ms.config.Server.Port,
		"address": localAddress,
	}).Info("Server starting")

	if ms.ngrokService != nil {
		ctx := context.Background()
		if err := ms.ngrokService.StartTunnel(ctx, localAddress); err != nil {
			ms.logger.WithError(err).Warn("Could not start ngrok tunnel")
		}
	}

	ms.httpServer = &http.Server{
		Addr:        ms.config.GetAddress(),
		Handler:     handler,
		ReadTimeout: time.Duration(ms.config.Server.ReadTimeout) * time.Second,
	}

	return ms.httpServer.ListenAndServe()
}

// buildHandler assembles the route table and middleware chain.
func (ms *MusicServer) buildHandler() http.Handler {
	mux := http.NewServeMux()
	ms.setupRoutes(mux)

	var handler http.Handler = mux
	handler = ms.requestLoggingMiddleware(handler)
	handler = ms.corsMiddleware(handler)
	handler = ms.panicRecoveryMiddleware(handler)
	return handler
}

func (ms *MusicServer) setupRoutes(mux *http.ServeMux) {
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(ms.config.Server.StaticDir))))
	mux.HandleFunc("/health", ms.handleHealthCheck)

	// Catalog routes
	mux.HandleFunc("/api/moods", ms.handleGetMoods)
	mux.HandleFunc("/api/playlists/mood/", ms.handleMoodPlaylist)
	mux.HandleFunc("/api/playlists/recommended", ms.handleRecommended)
	mux.HandleFunc("/api/search", ms.handleSearch)
	mux.HandleFunc("/api/search/artist/", ms.handleArtistSearch)
	mux.HandleFunc("/api/search/album/", ms.handleAlbumSearch)
	mux.HandleFunc("/api/tracks/trending", ms.handleTrending)
	mux.HandleFunc("/api/tracks/genre/", ms.handleGenre)

	// Auth routes
	mux.HandleFunc("/api/auth/signup", ms.handleSignup)
	mux.HandleFunc("/api/auth/login", ms.handleAuthLogin)
	mux.HandleFunc("/api/auth/logout", ms.requireAuth(ms.handleAuthLogout))
	mux.HandleFunc("/api/auth/me", ms.requireAuth(ms.handleCurrentUser))
	mux.HandleFunc("/api/auth/change-password", ms.requireAuth(ms.handleChangePassword))
	mux.HandleFunc("/api/auth/delete-account", ms.requireAuth(ms.handleDeleteAccount))

	// Liked songs routes
	mux.HandleFunc("/api/user/liked-songs", ms.requireAuth(ms.handleLikedSongs))
	mux.HandleFunc("/api/user/liked-songs/", ms.requireAuth(ms.handleUnlikeSong))

	// User playlist routes
	mux.HandleFunc("/api/user/playlists", ms.requireAuth(ms.handleUserPlaylists))
	mux.HandleFunc("/api/user/playlists/", ms.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		pathParts := strings.Split(r.URL.Path, "/")
		if len(pathParts) >= 6 && pathParts[5] == "tracks" {
			switch r.Method {
			case http.MethodPost:
				ms.handleAddTrackToPlaylist(w, r)
			case http.MethodDelete:
				ms.handleRemoveTrackFromPlaylist(w, r)
			default:
				ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
			}
			return
		}
		switch r.Method {
		case http.MethodGet:
			ms.handleGetUserPlaylist(w, r)
		case http.MethodDelete:
			ms.handleDeletePlaylist(w, r)
		default:
			ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
		}
	}))

	// Playback session routes
	mux.HandleFunc("/api/player/state", ms.handlePlayerState)
	mux.HandleFunc("/api/player/load", ms.handlePlayerLoad)
	mux.HandleFunc("/api/player/select", ms.handlePlayerSelect)
	mux.HandleFunc("/api/player/next", ms.handlePlayerNext)
	mux.HandleFunc("/api/player/previous", ms.handlePlayerPrevious)
	mux.HandleFunc("/api/player/shuffle", ms.handlePlayerShuffle)
	mux.HandleFunc("/api/player/repeat", ms.handlePlayerRepeat)
	mux.HandleFunc("/api/player/play", ms.handlePlayerPlay)
	mux.HandleFunc("/api/player/pause", ms.handlePlayerPause)
	mux.HandleFunc("/api/player/seek", ms.handlePlayerSeek)
	mux.HandleFunc("/api/player/volume", ms.handlePlayerVolume)
	mux.HandleFunc("/api/player/tick", ms.handlePlayerTick)
	mux.HandleFunc("/api/player/ended", ms.handlePlayerEnded)
	mux.HandleFunc("/api/player/playback-failed", ms.handlePlaybackFailed)
	mux.HandleFunc("/api/player/like", ms.requireAuth(ms.handlePlayerLike))
}

// Shutdown gracefully stops the server and background services.
func (ms *MusicServer) Shutdown() {
	ms.logger.Info("Shutting down server")

	if ms.ngrokService != nil {
		ms.ngrokService.Stop()
	}
	ms.catalog.Stop()

	if ms.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ms.httpServer.Shutdown(ctx); err != nil {
			ms.logger.WithError(err).Warn("HTTP server shutdown failed")
		}
	}

	ms.logger.Info("Server shutdown complete")
}
