package server

// catalogue lists every tool the server can expose, in registration order.
func (s *Server) catalogue() []toolDef {
	var defs []toolDef
	for _, group := range [][]toolDef{
		s.clientTools(),
		s.libraryTools(),
		s.collectionTools(),
		s.playlistTools(),
		s.mediaTools(),
		s.serverTools(),
		s.sessionTools(),
		s.userTools(),
	} {
		defs = append(defs, group...)
	}
	return defs
}

var artTypes = []string{"poster", "background", "art", "logo"}

func (s *Server) clientTools() []toolDef {
	clientName := required(str("client_name", "Name of the client"))
	return []toolDef{
		{
			name:        "client_list",
			description: "List all available Plex clients connected to the server.",
			tag:         TagRead,
			input:       object(boolean("include_details", "Include client details such as platform, product and address")),
			run:         bind(s, s.clientList),
		},
		{
			name:        "client_get_details",
			description: "Get detailed information about a specific Plex client.",
			tag:         TagRead,
			input:       object(clientName),
			run:         bind(s, s.clientGetDetails),
		},
		{
			name:        "client_get_timelines",
			description: "Get the current timeline information for a specific Plex client.",
			tag:         TagRead,
			input:       object(clientName),
			run:         bind(s, s.clientGetTimelines),
		},
		{
			name:        "client_get_active",
			description: "Get all clients that are currently playing media.",
			tag:         TagRead,
			run:         bind(s, s.clientGetActive),
		},
		{
			name:        "client_start_playback",
			description: "Start playback of a media item on a specified client.",
			tag:         TagWrite,
			input: object(
				required(str("media_title", "Title of the media to play")),
				str("client_name", "Name of the client to play on; omit to list available clients"),
				integer("offset", "Position to start playback from, in milliseconds"),
				str("library_name", "Library to search in"),
				boolean("use_external_player", "Play through the client's external player"),
			),
			run: bind(s, s.clientStartPlayback),
		},
		{
			name:        "client_control_playback",
			description: "Control playback on a specified client.",
			tag:         TagWrite,
			input: object(
				clientName,
				required(enum("action", "Playback action", playbackActions...)),
				integer("parameter", "Seek position or offset in seconds, or volume level 0-100"),
				enum("media_type", "Type of media being controlled", playbackMediaTypes...),
			),
			run: bind(s, s.clientControlPlayback),
		},
		{
			name:        "client_navigate",
			description: "Navigate the menus of a Plex client.",
			tag:         TagWrite,
			input:       object(clientName, required(enum("action", "Navigation action", navigationActions...))),
			run:         bind(s, s.clientNavigate),
		},
		{
			name:        "client_set_streams",
			description: "Select the audio, subtitle or video stream of the media playing on a client.",
			tag:         TagWrite,
			input: object(
				clientName,
				str("audio_stream_id", "Audio stream ID"),
				str("subtitle_stream_id", "Subtitle stream ID, or 0 to disable subtitles"),
				str("video_stream_id", "Video stream ID"),
			),
			run: bind(s, s.clientSetStreams),
		},
	}
}

func (s *Server) libraryTools() []toolDef {
	libraryName := required(str("library_name", "Name of the library"))
	return []toolDef{
		{
			name:        "library_list",
			description: "List all available libraries on the Plex server.",
			tag:         TagRead,
			run:         bind(s, s.libraryList),
		},
		{
			name:        "library_get_stats",
			description: "Get statistics for a specific library.",
			tag:         TagRead,
			input:       object(libraryName),
			run:         bind(s, s.libraryGetStats),
		},
		{
			name:        "library_refresh",
			description: "Refresh a specific library or all libraries.",
			tag:         TagWrite,
			input:       object(str("library_name", "Library to refresh; omit to refresh all")),
			run:         bind(s, s.libraryRefresh),
		},
		{
			name:        "library_scan",
			description: "Scan a specific library or part of a library.",
			tag:         TagWrite,
			input:       object(libraryName, str("path", "Folder within the library to scan")),
			run:         bind(s, s.libraryScan),
		},
		{
			name:        "library_get_details",
			description: "Get detailed information about a specific library, including folder paths and settings.",
			tag:         TagRead,
			input:       object(libraryName),
			run:         bind(s, s.libraryGetDetails),
		},
		{
			name:        "library_get_recently_added",
			description: "Get recently added media across all libraries or in a specific library.",
			tag:         TagRead,
			input: object(
				integer("count", "Number of items to return"),
				str("library_name", "Library to look in; omit for all libraries"),
			),
			run: bind(s, s.libraryGetRecentlyAdded),
		},
		{
			name:        "library_get_contents",
			description: "Get the full contents of a specific library.",
			tag:         TagRead,
			input:       object(libraryName),
			run:         bind(s, s.libraryGetContents),
		},
	}
}

func collectionLookup() []prop {
	return []prop{
		str("collection_title", "Title of the collection"),
		keyArg("collection_id", "Rating key of the collection"),
		str("library_name", "Library containing the collection; required when looking up by title"),
	}
}

func (s *Server) collectionTools() []toolDef {
	items := []prop{
		strList("item_titles", "Titles of items"),
		idList("item_ids", "Rating keys of items"),
	}
	return []toolDef{
		{
			name:        "collection_list",
			description: "List all collections on the Plex server or in a specific library.",
			tag:         TagRead,
			input:       object(str("library_name", "Library to list; omit for all movie and show libraries")),
			run:         bind(s, s.collectionList),
		},
		{
			name:        "collection_create",
			description: "Create a new collection with specified items.",
			tag:         TagWrite,
			input: object(append([]prop{
				required(str("collection_title", "Title for the new collection")),
				required(str("library_name", "Library to create the collection in")),
			}, items...)...),
			run: bind(s, s.collectionCreate),
		},
		{
			name:        "collection_add_to",
			description: "Add items to an existing collection.",
			tag:         TagWrite,
			input:       object(append(collectionLookup(), items...)...),
			run:         bind(s, s.collectionAddTo),
		},
		{
			name:        "collection_remove_from",
			description: "Remove items from a collection.",
			tag:         TagWrite,
			input:       object(append(collectionLookup(), items...)...),
			run:         bind(s, s.collectionRemoveFrom),
		},
		{
			name:        "collection_delete",
			description: "Delete a collection.",
			tag:         TagDelete,
			input:       object(collectionLookup()...),
			run:         bind(s, s.collectionDelete),
		},
		{
			name:        "collection_edit",
			description: "Edit a collection's details, labels, artwork and advanced settings.",
			tag:         TagWrite,
			input: object(append(collectionLookup(),
				str("new_title", "New title"),
				str("new_sort_title", "New sort title"),
				str("new_summary", "New summary"),
				str("new_content_rating", "New content rating"),
				strList("new_labels", "Replace all labels with these"),
				strList("add_labels", "Labels to add"),
				strList("remove_labels", "Labels to remove"),
				str("poster_path", "Local image file to use as poster"),
				str("poster_url", "Image URL to use as poster"),
				str("background_path", "Local image file to use as background"),
				str("background_url", "Image URL to use as background"),
				anyObject("new_advanced_settings", "Advanced settings to change, by setting id"),
			)...),
			run: bind(s, s.collectionEdit),
		},
	}
}

func playlistLookup() []prop {
	return []prop{
		str("playlist_title", "Title of the playlist"),
		keyArg("playlist_id", "Rating key of the playlist"),
	}
}

func (s *Server) playlistTools() []toolDef {
	return []toolDef{
		{
			name:        "playlist_list",
			description: "List all playlists on the Plex server.",
			tag:         TagRead,
			input: object(
				str("library_name", "Only playlists from this library"),
				enum("content_type", "Only playlists of this type", "audio", "video", "photo"),
			),
			run: bind(s, s.playlistList),
		},
		{
			name:        "playlist_get_contents",
			description: "Get the contents of a playlist.",
			tag:         TagRead,
			input:       object(playlistLookup()...),
			run:         bind(s, s.playlistGetContents),
		},
		{
			name:        "playlist_create",
			description: "Create a new playlist with specified items.",
			tag:         TagWrite,
			input: object(
				required(str("playlist_title", "Title for the new playlist")),
				required(strList("item_titles", "Titles of the items to add")),
				str("library_name", "Library to search for items"),
				str("summary", "Playlist summary"),
			),
			run: bind(s, s.playlistCreate),
		},
		{
			name:        "playlist_delete",
			description: "Delete a playlist.",
			tag:         TagDelete,
			input:       object(playlistLookup()...),
			run:         bind(s, s.playlistDelete),
		},
		{
			name:        "playlist_add_to",
			description: "Add items to a playlist.",
			tag:         TagWrite,
			input: object(append(playlistLookup(),
				strList("item_titles", "Titles of items to add"),
				idList("item_ids", "Rating keys of items to add"),
			)...),
			run: bind(s, s.playlistAddTo),
		},
		{
			name:        "playlist_remove_from",
			description: "Remove items from a playlist.",
			tag:         TagWrite,
			input:       object(append(playlistLookup(), required(strList("item_titles", "Titles of items to remove")))...),
			run:         bind(s, s.playlistRemoveFrom),
		},
		{
			name:        "playlist_edit",
			description: "Edit a playlist's title or summary.",
			tag:         TagWrite,
			input: object(append(playlistLookup(),
				str("new_title", "New title"),
				str("new_summary", "New summary"),
			)...),
			run: bind(s, s.playlistEdit),
		},
		{
			name:        "playlist_upload_poster",
			description: "Upload a poster image for a playlist.",
			tag:         TagWrite,
			input: object(append(playlistLookup(),
				str("poster_url", "Image URL"),
				str("poster_filepath", "Local image file"),
			)...),
			run: bind(s, s.playlistUploadPoster),
		},
		{
			name:        "playlist_copy_to_user",
			description: "Copy a playlist to another user's account.",
			tag:         TagWrite,
			input:       object(append(playlistLookup(), required(str("username", "User to copy the playlist to")))...),
			run:         bind(s, s.playlistCopyToUser),
		},
	}
}

func mediaLookup() []prop {
	return []prop{
		str("media_title", "Title of the media"),
		keyArg("media_id", "Rating key of the media"),
		str("library_name", "Library to search in"),
	}
}

func (s *Server) mediaTools() []toolDef {
	return []toolDef{
		{
			name:        "media_search",
			description: "Search for media across all libraries.",
			tag:         TagRead,
			input: object(
				required(str("query", "Search term")),
				str("content_type", "Type of content: movie, show, episode, track, album, artist, or a comma-separated list"),
			),
			run: bind(s, s.mediaSearch),
		},
		{
			name:        "media_get_details",
			description: "Get detailed information about a specific media item.",
			tag:         TagRead,
			input:       object(mediaLookup()...),
			run:         bind(s, s.mediaGetDetails),
		},
		{
			name:        "media_edit_metadata",
			description: "Edit metadata for a specific media item.",
			tag:         TagWrite,
			input: object(
				required(str("media_title", "Title of the media to edit")),
				str("library_name", "Library to search in"),
				str("new_title", "New title"),
				str("new_summary", "New summary"),
				number("new_rating", "New rating, 0-10"),
				str("new_release_date", "New release date, YYYY-MM-DD"),
				str("new_genre", "Genre to add"),
				str("remove_genre", "Genre to remove"),
				str("new_director", "Director to add"),
				str("new_studio", "New studio"),
				strList("new_tags", "Tags to add"),
			),
			run: bind(s, s.mediaEditMetadata),
		},
		{
			name:        "media_delete",
			description: "Delete a media item from the Plex library.",
			tag:         TagDelete,
			input: object(
				str("media_title", "Title of the media"),
				keyArg("media_id", "Rating key of the media"),
				enum("media_type", "Type of the media", mediaTypes...),
			),
			run: bind(s, s.mediaDelete),
		},
		{
			name:        "media_get_artwork",
			description: "Get artwork images for a media item.",
			tag:         TagRead,
			input: object(append(mediaLookup(),
				strList("image_types", "Image types: poster, background, logo"),
				enum("output_format", "How to return the images", "base64", "url", "file_path"),
				str("output_dir", "Directory for saved images when output_format is file_path"),
			)...),
			run: bind(s, s.mediaGetArtwork),
		},
		{
			name:        "media_set_artwork",
			description: "Set artwork for a media item from a local file or a URL.",
			tag:         TagWrite,
			input: object(append(mediaLookup(),
				enum("art_type", "Artwork slot", artTypes...),
				str("filepath", "Local image file"),
				str("url", "Image URL"),
				boolean("lock", "Lock the artwork against agent updates"),
			)...),
			run: bind(s, s.mediaSetArtwork),
		},
		{
			name:        "media_list_available_artwork",
			description: "List the artwork options available for a media item.",
			tag:         TagRead,
			input:       object(append(mediaLookup(), enum("art_type", "Artwork slot", artTypes...))...),
			run:         bind(s, s.mediaListAvailableArtwork),
		},
	}
}

func (s *Server) serverTools() []toolDef {
	return []toolDef{
		{
			name:        "server_get_plex_logs",
			description: "Get Plex server logs.",
			tag:         TagRead,
			input: object(
				integer("num_lines", "Number of log lines to return"),
				str("log_type", "Log to read: server, scanner, transcoder, updater, or a file name"),
			),
			run: bind(s, s.serverGetPlexLogs),
		},
		{
			name:        "server_get_info",
			description: "Get detailed information about the Plex server.",
			tag:         TagRead,
			run:         bind(s, s.serverGetInfo),
		},
		{
			name:        "server_get_bandwidth",
			description: "Get bandwidth statistics from the Plex server.",
			tag:         TagRead,
			input: object(
				enum("timespan", "Sample granularity", "seconds", "hours", "days", "weeks", "months"),
				enum("lan", "Only local (true) or remote (false) traffic", "true", "false"),
			),
			run: bind(s, s.serverGetBandwidth),
		},
		{
			name:        "server_get_current_resources",
			description: "Get resource usage information from the Plex server.",
			tag:         TagRead,
			run:         bind(s, s.serverGetCurrentResources),
		},
		{
			name:        "server_get_butler_tasks",
			description: "Get information about Plex Butler tasks.",
			tag:         TagRead,
			run:         bind(s, s.serverGetButlerTasks),
		},
		{
			name:        "server_get_alerts",
			description: "Listen for real-time alerts from the Plex server.",
			tag:         TagRead,
			input:       object(integer("timeout", "Seconds to listen for")),
			run:         bind(s, s.serverGetAlerts),
		},
		{
			name:        "server_run_butler_task",
			description: "Run a Plex Butler task now.",
			tag:         TagWrite,
			input:       object(required(str("task_name", "Name of the butler task, such as BackupDatabase"))),
			run:         bind(s, s.serverRunButlerTask),
		},
	}
}

func (s *Server) sessionTools() []toolDef {
	return []toolDef{
		{
			name:        "sessions_get_active",
			description: "Get information about current playback sessions, including IP addresses.",
			tag:         TagRead,
			run:         bind(s, s.sessionsGetActive),
		},
		{
			name:        "sessions_get_media_playback_history",
			description: "Get playback history for a specific media item.",
			tag:         TagRead,
			input:       object(mediaLookup()...),
			run:         bind(s, s.sessionsGetMediaPlaybackHistory),
		},
	}
}

func (s *Server) userTools() []toolDef {
	username := str("username", "Plex username; defaults to the configured user or the owner")
	return []toolDef{
		{
			name:        "user_search_users",
			description: "Search for users by name, username or email, or list all users.",
			tag:         TagRead,
			input:       object(str("search_term", "Term to search for")),
			run:         bind(s, s.userSearchUsers),
		},
		{
			name:        "user_get_info",
			description: "Get detailed information about a specific Plex user.",
			tag:         TagRead,
			input:       object(username),
			run:         bind(s, s.userGetInfo),
		},
		{
			name:        "user_get_on_deck",
			description: "Get on deck (in progress) media for a specific user.",
			tag:         TagRead,
			input:       object(username),
			run:         bind(s, s.userGetOnDeck),
		},
		{
			name:        "user_get_watch_history",
			description: "Get recent watch history for a specific user.",
			tag:         TagRead,
			input: object(
				username,
				integer("limit", "Maximum number of items"),
				str("content_type", "Only items of this type, such as movie or episode"),
			),
			run: bind(s, s.userGetWatchHistory),
		},
		{
			name:        "user_get_statistics",
			description: "Get statistics about user watch activity over a time period.",
			tag:         TagRead,
			input: object(
				enum("time_period", "Time period", statPeriodOrder...),
				str("username", "Only this user"),
			),
			run: bind(s, s.userGetStatistics),
		},
	}
}
