package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/jpo-explorer/backend/internal/infrastructure/clients/sqldb"
)

// schemaStatements create the record store tables. The DDL is portable
// between PostgreSQL and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS region (
		num_region INTEGER PRIMARY KEY,
		nom_region TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS departement (
		num_dep TEXT PRIMARY KEY,
		nom_departement TEXT,
		num_region INTEGER REFERENCES region(num_region)
	)`,
	`CREATE TABLE IF NOT EXISTS ville (
		id_ville INTEGER PRIMARY KEY,
		nom_ville TEXT NOT NULL,
		code_postal TEXT,
		num_dep TEXT REFERENCES departement(num_dep)
	)`,
	`CREATE TABLE IF NOT EXISTS etablissement (
		id_etablissement INTEGER PRIMARY KEY,
		nom_etablissement TEXT NOT NULL,
		tel TEXT,
		site_web TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS composante (
		id_composante INTEGER PRIMARY KEY,
		nom_composante TEXT,
		adresse TEXT,
		coordonnees TEXT,
		id_ville INTEGER REFERENCES ville(id_ville),
		id_etablissement INTEGER REFERENCES etablissement(id_etablissement)
	)`,
	`CREATE TABLE IF NOT EXISTS type_formation (
		id_type_formation INTEGER PRIMARY KEY,
		nom_diplome TEXT,
		duree INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS formation (
		id_formation INTEGER PRIMARY KEY,
		id_type_formation INTEGER REFERENCES type_formation(id_type_formation),
		intitule TEXT,
		stages TEXT,
		stages_etranger TEXT,
		debouches TEXT,
		double_diplome TEXT,
		relations_internationales TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS jpo (
		id_jpo INTEGER PRIMARY KEY,
		date DATE,
		heure TIME,
		id_composante INTEGER REFERENCES composante(id_composante)
	)`,
}

// seedTables is the insertion order; it respects foreign keys.
var seedTables = []string{
	"region", "departement", "ville", "etablissement",
	"composante", "type_formation", "formation", "jpo",
}

var seedRows = map[string][]goqu.Record{
	"region": {
		{"num_region": 84, "nom_region": "Auvergne-Rhône-Alpes"},
		{"num_region": 11, "nom_region": "Île-de-France"},
		{"num_region": 53, "nom_region": "Bretagne"},
		{"num_region": 76, "nom_region": "Occitanie"},
	},
	"departement": {
		{"num_dep": "69", "nom_departement": "Rhône", "num_region": 84},
		{"num_dep": "75", "nom_departement": "Paris", "num_region": 11},
		{"num_dep": "35", "nom_departement": "Ille-et-Vilaine", "num_region": 53},
		{"num_dep": "31", "nom_departement": "Haute-Garonne", "num_region": 76},
	},
	"ville": {
		{"id_ville": 1, "nom_ville": "Lyon", "code_postal": "69007", "num_dep": "69"},
		{"id_ville": 2, "nom_ville": "Paris", "code_postal": "75005", "num_dep": "75"},
		{"id_ville": 3, "nom_ville": "Rennes", "code_postal": "35000", "num_dep": "35"},
		{"id_ville": 4, "nom_ville": "Toulouse", "code_postal": "31400", "num_dep": "31"},
	},
	"etablissement": {
		{"id_etablissement": 1, "nom_etablissement": "Université Claude Bernard Lyon 1", "tel": "04 72 44 80 00", "site_web": "https://www.univ-lyon1.fr"},
		{"id_etablissement": 2, "nom_etablissement": "Sorbonne Université", "tel": "01 44 27 44 27", "site_web": "https://www.sorbonne-universite.fr"},
		{"id_etablissement": 3, "nom_etablissement": "Université de Rennes", "tel": "02 23 23 35 35", "site_web": "https://www.univ-rennes.fr"},
		{"id_etablissement": 4, "nom_etablissement": "INSA Toulouse", "tel": "05 61 55 95 13", "site_web": "https://www.insa-toulouse.fr"},
		{"id_etablissement": 5, "nom_etablissement": "Université Lumière Lyon 2", "tel": "04 78 69 70 00", "site_web": "https://www.univ-lyon2.fr"},
	},
	"composante": {
		{"id_composante": 1, "nom_composante": "Département Informatique", "adresse": "43 boulevard du 11 Novembre 1918", "coordonnees": "45.7797,4.8656", "id_ville": 1, "id_etablissement": 1},
		{"id_composante": 2, "nom_composante": "Faculté de Droit", "adresse": "12 place du Panthéon", "coordonnees": "48.8462,2.3448", "id_ville": 2, "id_etablissement": 2},
		{"id_composante": 3, "nom_composante": "ISTIC", "adresse": "263 avenue du Général Leclerc", "coordonnees": "48.1157,-1.6380", "id_ville": 3, "id_etablissement": 3},
		{"id_composante": 4, "nom_composante": "Département Génie Mécanique", "adresse": "135 avenue de Rangueil", "coordonnees": "43.5703,1.4683", "id_ville": 4, "id_etablissement": 4},
		{"id_composante": 5, "nom_composante": "Institut de Psychologie", "adresse": "5 avenue Pierre Mendès France", "coordonnees": "45.7680,4.8590", "id_ville": 1, "id_etablissement": 5},
		{"id_composante": 6, "nom_composante": "Faculté des Sciences", "adresse": "4 place Jussieu", "coordonnees": "48.8467,2.3565", "id_ville": 2, "id_etablissement": 2},
	},
	"type_formation": {
		{"id_type_formation": 1, "nom_diplome": "Licence", "duree": 3},
		{"id_type_formation": 2, "nom_diplome": "Licence", "duree": 3},
		{"id_type_formation": 3, "nom_diplome": "Master", "duree": 2},
		{"id_type_formation": 4, "nom_diplome": "Diplôme d'ingénieur", "duree": 5},
		{"id_type_formation": 5, "nom_diplome": "Licence", "duree": 3},
		{"id_type_formation": 6, "nom_diplome": "Master", "duree": 2},
	},
	"formation": {
		{"id_formation": 1, "id_type_formation": 1, "intitule": "Licence Informatique", "stages": "Oui", "stages_etranger": "Non", "debouches": "Développeur, administrateur systèmes et réseaux", "double_diplome": "Non", "relations_internationales": "Erasmus+"},
		{"id_formation": 2, "id_type_formation": 2, "intitule": "Licence Droit", "stages": "Non", "stages_etranger": "Non", "debouches": "Juriste, avocat, notaire", "double_diplome": "Oui", "relations_internationales": nil},
		{"id_formation": 3, "id_type_formation": 3, "intitule": "Master Cybersécurité", "stages": "Oui", "stages_etranger": "Oui", "debouches": "Ingénieur sécurité informatique, pentesteur", "double_diplome": "Non", "relations_internationales": "Partenariats Québec"},
		{"id_formation": 4, "id_type_formation": 4, "intitule": "Ingénieur Génie Mécanique", "stages": "Oui", "stages_etranger": "Oui", "debouches": "Ingénieur conception, aéronautique", "double_diplome": "Oui", "relations_internationales": "Erasmus+"},
		{"id_formation": 5, "id_type_formation": 5, "intitule": "Licence Psychologie", "stages": "Oui", "stages_etranger": "Non", "debouches": "Psychologue, conseiller d'orientation", "double_diplome": "Non", "relations_internationales": nil},
		{"id_formation": 6, "id_type_formation": 6, "intitule": "Master Physique Fondamentale", "stages": "Oui", "stages_etranger": "Non", "debouches": "Chercheur, ingénieur R&D", "double_diplome": "Non", "relations_internationales": "Erasmus+"},
	},
	"jpo": {
		{"id_jpo": 1, "date": "2025-01-25", "heure": "09:00", "id_composante": 1},
		{"id_jpo": 2, "date": "2025-02-01", "heure": "10:00", "id_composante": 2},
		{"id_jpo": 3, "date": "2025-02-08", "heure": "09:30", "id_composante": 3},
		{"id_jpo": 4, "date": "2025-02-15", "heure": "14:00", "id_composante": 4},
		{"id_jpo": 5, "date": "2025-03-01", "heure": "10:00", "id_composante": 5},
		{"id_jpo": 6, "date": "2025-03-08", "heure": "13:30", "id_composante": 6},
		{"id_jpo": 7, "date": "2025-03-15", "heure": "09:00", "id_composante": nil},
	},
}

// EnsureSchema creates the record store tables when missing.
func EnsureSchema(ctx context.Context, client *sqldb.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed creates the schema and loads a small demonstration data set. It
// returns the number of open-house events inserted.
func Seed(ctx context.Context, client *sqldb.Client) (int, error) {
	if err := EnsureSchema(ctx, client); err != nil {
		return 0, err
	}

	db := client.Goqu()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}

	err = tx.Wrap(func() error {
		for _, table := range seedTables {
			rows := make([]interface{}, 0, len(seedRows[table]))
			for _, row := range seedRows[table] {
				rows = append(rows, row)
			}
			if _, err := tx.Insert(table).Rows(rows...).Executor().ExecContext(ctx); err != nil {
				return fmt.Errorf("failed to seed %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(seedRows["jpo"]), nil
}
