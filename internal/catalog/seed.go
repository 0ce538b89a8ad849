package catalog

import "time"

var seedTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// SeedMovies returns a fresh copy of the built-in catalog.
func SeedMovies() []*Movie {
	movies := []*Movie{
		{
			ID:               1,
			TMDBID:           ptr[int64](27205),
			Title:            "Inception",
			Slug:             "inception-2010",
			Year:             2010,
			Genre:            "Science Fiction",
			Genres:           []string{"Science Fiction", "Action"},
			PosterPathRemote: ptr("/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg"),
			Summary:          "Un ladro capace di infiltrarsi nei sogni viene incaricato di impiantare un'idea nella mente di un magnate.",
			Director:         "Christopher Nolan",
			Cast:             []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Elliot Page"},
			Duration:         ptr(148),
			Rating:           ptr(8.3),
			RatingCount:      ptr(32000),
		},
		{
			ID:               2,
			TMDBID:           ptr[int64](238),
			Title:            "Il padrino",
			Slug:             "il-padrino-1972",
			Year:             1972,
			Genre:            "Crime",
			Genres:           []string{"Crime", "Drama"},
			PosterPathRemote: ptr("/3bhkrj58Vtu7enYsRolD1fZdja1.jpg"),
			Summary:          "La saga dei Corleone racconta l'ascesa e la trasformazione del potere criminale in America.",
			Director:         "Francis Ford Coppola",
			Cast:             []string{"Marlon Brando", "Al Pacino", "James Caan"},
			Duration:         ptr(175),
			Rating:           ptr(9.2),
			RatingCount:      ptr(42000),
		},
		{
			ID:               3,
			TMDBID:           ptr[int64](603),
			Title:            "Matrix",
			Slug:             "matrix-1999",
			Year:             1999,
			Genre:            "Action",
			Genres:           []string{"Action", "Science Fiction"},
			PosterPathRemote: ptr("/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg"),
			Summary:          "Thomas Anderson scopre la vera natura della realtà e abbraccia il suo destino come Neo.",
			Director:         "Lana Wachowski, Lilly Wachowski",
			Cast:             []string{"Keanu Reeves", "Carrie-Anne Moss", "Laurence Fishburne"},
			Duration:         ptr(136),
			Rating:           ptr(8.2),
			RatingCount:      ptr(28000),
		},
		{
			ID:               4,
			TMDBID:           ptr[int64](1891),
			Title:            "Il favoloso mondo di Amélie",
			Slug:             "il-favoloso-mondo-di-amelie-2001",
			Year:             2001,
			Genre:            "Romance",
			Genres:           []string{"Romance", "Comedy"},
			PosterPathRemote: ptr("/wnUAcUrMRGPPZUDroLezhz7kwR7.jpg"),
			Summary:          "Amélie decide di dedicarsi a migliorare la vita degli altri mentre scopre l'amore.",
			Director:         "Jean-Pierre Jeunet",
			Cast:             []string{"Audrey Tautou", "Mathieu Kassovitz"},
			Duration:         ptr(122),
			Rating:           ptr(8.0),
			RatingCount:      ptr(17000),
		},
		{
			ID:               5,
			TMDBID:           ptr[int64](424),
			Title:            "Schindler's List",
			Slug:             "schindlers-list-1993",
			Year:             1993,
			Genre:            "Drama",
			Genres:           []string{"Drama", "History"},
			PosterPathRemote: ptr("/c8Ass7acuOe4za6DhSattE359gr.jpg"),
			Summary:          "La storia di Oskar Schindler e del suo piano per salvare centinaia di ebrei durante l'olocausto.",
			Director:         "Steven Spielberg",
			Cast:             []string{"Liam Neeson", "Ben Kingsley", "Ralph Fiennes"},
			Duration:         ptr(195),
			Rating:           ptr(8.6),
			RatingCount:      ptr(25000),
		},
	}
	for _, m := range movies {
		m.CreatedAt = seedTime
		m.UpdatedAt = seedTime
	}
	return movies
}

func ptr[T any](v T) *T {
	return &v
}
