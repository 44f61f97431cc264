package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"moodplay/pkg/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Sentinel errors returned by store operations. Handlers translate these
// into the matching HTTP status codes.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrAlreadyLiked   = errors.New("song already liked")
	ErrDuplicateTrack = errors.New("track already in playlist")
)

// Database wraps a *sql.DB providing higher-level helper methods for
// interacting with the application's persistent store. It is safe for
// concurrent use because the underlying *sql.DB is concurrency-safe.
type Database struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for better performance
	getUserByEmailStmt *sql.Stmt
	getUserByIDStmt    *sql.Stmt
	likedSongsStmt     *sql.Stmt
	insertLikedStmt    *sql.Stmt
	removeLikedStmt    *sql.Stmt
}

// NewDatabase opens (or creates) a SQLite database at the provided path and
// ensures all required tables and indices exist. It also applies lightweight
// performance-oriented pragmas (WAL, cache sizing). Caller should Close() it
// when finished.
func NewDatabase(dbPath string) (*Database, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool - adjusted for SQLite
	conn.SetMaxOpenConns(5) // SQLite works better with fewer connections
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	// Enable WAL mode for better concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	db := &Database{
		conn:   conn,
		logger: logger,
	}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := db.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("db_path", dbPath).Info("Database initialized successfully")
	return db, nil
}

// createTables creates tables and indices if they do not already exist.
// This is idempotent and safe to call multiple times.
func (db *Database) createTables() error {
	usersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	likedSongsTable := `
	CREATE TABLE IF NOT EXISTS liked_songs (
		user_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		duration TEXT NOT NULL,
		audio TEXT,
		preview TEXT,
		audio_download TEXT,
		image TEXT,
		source TEXT,
		position INTEGER NOT NULL,
		liked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, track_id)
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	playlistTracksTable := `
	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		duration TEXT NOT NULL,
		audio TEXT,
		preview TEXT,
		audio_download TEXT,
		image TEXT,
		source TEXT,
		position INTEGER NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, track_id)
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);",
		"CREATE INDEX IF NOT EXISTS idx_liked_songs_user ON liked_songs(user_id, position);",
		"CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists(user_id, created_at);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_tracks_position ON playlist_tracks(playlist_id, position);",
	}

	tables := []string{usersTable, likedSongsTable, playlistsTable, playlistTracksTable}
	for _, table := range tables {
		if _, err := db.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := db.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// prepareStatements prepares commonly used SQL statements for better performance
func (db *Database) prepareStatements() error {
	var err error

	db.getUserByEmailStmt, err = db.conn.Prepare(`
		SELECT id, email, password_hash, name, created_at
		FROM users WHERE email = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get user by email statement: %w", err)
	}

	db.getUserByIDStmt, err = db.conn.Prepare(`
		SELECT id, email, password_hash, name, created_at
		FROM users WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get user by ID statement: %w", err)
	}

	db.likedSongsStmt, err = db.conn.Prepare(`
		SELECT track_id, title, artist, album, duration, audio, preview, audio_download, image, source
		FROM liked_songs
		WHERE user_id = ?
		ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to prepare liked songs statement: %w", err)
	}

	db.insertLikedStmt, err = db.conn.Prepare(`
		INSERT INTO liked_songs (user_id, track_id, title, artist, album, duration, audio, preview, audio_download, image, source, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert liked song statement: %w", err)
	}

	db.removeLikedStmt, err = db.conn.Prepare(`
		DELETE FROM liked_songs WHERE user_id = ? AND track_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare remove liked song statement: %w", err)
	}

	return nil
}

// UserRecord is the stored form of a user account including the password
// hash. It is never serialized to clients.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// CreateUser inserts a new user and returns its generated ID.
func (db *Database) CreateUser(email, passwordHash, name string) (*UserRecord, error) {
	user := &UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
	}

	_, err := db.conn.Exec(`
		INSERT INTO users (id, email, password_hash, name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		db.logger.WithError(err).WithField("email", email).Error("Failed to insert user")
		return nil, err
	}

	return user, nil
}

// GetUserByEmail returns the stored user record for an email address.
func (db *Database) GetUserByEmail(email string) (*UserRecord, error) {
	var user UserRecord
	err := db.getUserByEmailStmt.QueryRow(email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		db.logger.WithError(err).WithField("email", email).Error("Failed to get user by email")
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns the stored user record for a user ID.
func (db *Database) GetUserByID(id string) (*UserRecord, error) {
	var user UserRecord
	err := db.getUserByIDStmt.QueryRow(id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		db.logger.WithError(err).WithField("user_id", id).Error("Failed to get user by ID")
		return nil, err
	}
	return &user, nil
}

// UpdatePassword replaces a user's password hash.
func (db *Database) UpdatePassword(userID, passwordHash string) error {
	result, err := db.conn.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to update password")
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user and, through cascading foreign keys, their liked
// songs and playlists.
func (db *Database) DeleteUser(userID string) error {
	result, err := db.conn.Exec(`DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to delete user")
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	db.logger.WithField("user_id", userID).Info("Deleted user account")
	return nil
}

// GetLikedSongs returns a user's liked tracks in like order.
func (db *Database) GetLikedSongs(userID string) ([]models.Track, error) {
	rows, err := db.likedSongsStmt.Query(userID)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to get liked songs")
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// AddLikedSong appends a track to the end of a user's liked list. Returns
// ErrAlreadyLiked if the track id is already present.
func (db *Database) AddLikedSong(userID string, track models.Track) error {
	position, err := db.nextPosition("liked_songs", "user_id", userID)
	if err != nil {
		return err
	}

	_, err = db.insertLikedStmt.Exec(
		userID, track.ID, track.Title, track.Artist, track.Album, track.Duration,
		track.Audio, track.Preview, track.AudioDownload, track.Image, track.Source,
		position)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyLiked
		}
		db.logger.WithError(err).WithField("track_id", track.ID).Error("Failed to insert liked song")
		return err
	}
	return nil
}

// RemoveLikedSong removes a track from a user's liked list.
func (db *Database) RemoveLikedSong(userID, trackID string) error {
	result, err := db.removeLikedStmt.Exec(userID, trackID)
	if err != nil {
		db.logger.WithError(err).WithField("track_id", trackID).Error("Failed to remove liked song")
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreatePlaylist inserts a new empty playlist for a user.
func (db *Database) CreatePlaylist(userID, name string) (*models.Playlist, error) {
	playlist := &models.Playlist{
		ID:        uuid.NewString(),
		Name:      name,
		Tracks:    []models.Track{},
		CreatedAt: time.Now(),
	}

	_, err := db.conn.Exec(`
		INSERT INTO playlists (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)`,
		playlist.ID, userID, playlist.Name, playlist.CreatedAt)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to create playlist")
		return nil, err
	}

	return playlist, nil
}

// GetPlaylists returns all playlists for a user, tracks included, newest
// playlist first.
func (db *Database) GetPlaylists(userID string) ([]models.Playlist, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, created_at
		FROM playlists
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		db.logger.WithError(err).WithField("user_id", userID).Error("Failed to get playlists")
		return nil, err
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		var playlist models.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.CreatedAt); err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		tracks, err := db.getPlaylistTracks(playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Tracks = tracks
	}

	return playlists, nil
}

// GetPlaylist returns a single playlist owned by the user, tracks included.
func (db *Database) GetPlaylist(userID, playlistID string) (*models.Playlist, error) {
	var playlist models.Playlist
	err := db.conn.QueryRow(`
		SELECT id, name, created_at
		FROM playlists
		WHERE id = ? AND user_id = ?`, playlistID, userID).Scan(
		&playlist.ID, &playlist.Name, &playlist.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to get playlist")
		return nil, err
	}

	tracks, err := db.getPlaylistTracks(playlist.ID)
	if err != nil {
		return nil, err
	}
	playlist.Tracks = tracks
	return &playlist, nil
}

// DeletePlaylist deletes the playlist and any playlist_tracks entries
// referencing it.
func (db *Database) DeletePlaylist(userID, playlistID string) error {
	result, err := db.conn.Exec(`
		DELETE FROM playlists WHERE id = ? AND user_id = ?`, playlistID, userID)
	if err != nil {
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to delete playlist")
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTrackToPlaylist appends a track to the end of a playlist. Returns
// ErrDuplicateTrack if the track id is already present.
func (db *Database) AddTrackToPlaylist(userID, playlistID string, track models.Track) error {
	// Verify ownership before mutating
	if _, err := db.GetPlaylist(userID, playlistID); err != nil {
		return err
	}

	position, err := db.nextPosition("playlist_tracks", "playlist_id", playlistID)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(`
		INSERT INTO playlist_tracks (playlist_id, track_id, title, artist, album, duration, audio, preview, audio_download, image, source, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		playlistID, track.ID, track.Title, track.Artist, track.Album, track.Duration,
		track.Audio, track.Preview, track.AudioDownload, track.Image, track.Source,
		position)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateTrack
		}
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to add track to playlist")
		return err
	}
	return nil
}

// RemoveTrackFromPlaylist removes a specific track from the given playlist.
func (db *Database) RemoveTrackFromPlaylist(userID, playlistID, trackID string) error {
	// Verify ownership before mutating
	if _, err := db.GetPlaylist(userID, playlistID); err != nil {
		return err
	}

	result, err := db.conn.Exec(`
		DELETE FROM playlist_tracks
		WHERE playlist_id = ? AND track_id = ?`, playlistID, trackID)
	if err != nil {
		db.logger.WithError(err).WithField("playlist_id", playlistID).Error("Failed to remove track from playlist")
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping reports whether the underlying connection is usable. Handlers use it
// to surface "database unavailable" before attempting a mutation.
func (db *Database) Ping() error {
	return db.conn.Ping()
}

// Close closes the underlying database connection and prepared statements.
func (db *Database) Close() error {
	statements := []*sql.Stmt{
		db.getUserByEmailStmt,
		db.getUserByIDStmt,
		db.likedSongsStmt,
		db.insertLikedStmt,
		db.removeLikedStmt,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				db.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// getPlaylistTracks returns tracks for a playlist ordered by stored position.
func (db *Database) getPlaylistTracks(playlistID string) ([]models.Track, error) {
	rows, err := db.conn.Query(`
		SELECT track_id, title, artist, album, duration, audio, preview, audio_download, image, source
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// nextPosition computes the next append position within an ordered
// collection table (liked_songs or playlist_tracks).
func (db *Database) nextPosition(table, keyColumn, keyValue string) (int, error) {
	var maxPosition sql.NullInt64
	err := db.conn.QueryRow(
		fmt.Sprintf("SELECT MAX(position) FROM %s WHERE %s = ?", table, keyColumn),
		keyValue).Scan(&maxPosition)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}

	position := 1
	if maxPosition.Valid {
		position = int(maxPosition.Int64) + 1
	}
	return position, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// mattn/go-sqlite3 embeds the constraint name in the error text; matching
	// on the message avoids importing the driver's error types here.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// scanTrackRows scans standard track result sets into a slice of
// models.Track. Callers must have already deferred rows.Close().
func scanTrackRows(rows *sql.Rows) ([]models.Track, error) {
	tracks := []models.Track{}
	for rows.Next() {
		var track models.Track
		var audio, preview, audioDownload, image, source sql.NullString

		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album,
			&track.Duration, &audio, &preview, &audioDownload, &image, &source); err != nil {
			return nil, err
		}

		track.Audio = audio.String
		track.Preview = preview.String
		track.AudioDownload = audioDownload.String
		track.Image = image.String
		track.Source = source.String
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}
