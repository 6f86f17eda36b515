package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/domain/repositories"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/sqldb"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
	apperrors "github.com/jpo-explorer/backend/pkg/errors"
)

// RecordAdapter implements the RecordRepository interface
type RecordAdapter struct {
	client  *sqldb.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewRecordAdapter creates a new record adapter. metrics may be nil.
func NewRecordAdapter(client *sqldb.Client, metrics *observability.Metrics) repositories.RecordRepository {
	return &RecordAdapter{
		client:  client,
		db:      client.Goqu(),
		metrics: metrics,
	}
}

// recordColumns lists the selected columns in Scan order.
func recordColumns() []interface{} {
	return []interface{}{
		goqu.I("j.id_jpo"),
		goqu.Cast(goqu.I("j.date"), "TEXT").As("date"),
		goqu.Cast(goqu.I("j.heure"), "TEXT").As("heure"),
		goqu.I("c.id_composante"),
		goqu.I("c.nom_composante"),
		goqu.I("c.adresse"),
		goqu.Cast(goqu.I("c.coordonnees"), "TEXT").As("coordonnees"),
		goqu.I("v.id_ville"),
		goqu.I("v.nom_ville"),
		goqu.I("v.code_postal"),
		goqu.I("r.nom_region"),
		goqu.I("e.id_etablissement"),
		goqu.I("e.nom_etablissement"),
		goqu.I("e.tel"),
		goqu.I("e.site_web"),
		goqu.I("t.nom_diplome"),
		goqu.I("t.duree"),
		goqu.I("f.intitule"),
		goqu.I("f.stages"),
		goqu.I("f.stages_etranger"),
		goqu.I("f.debouches"),
		goqu.I("f.double_diplome"),
		goqu.I("f.relations_internationales"),
	}
}

func on(left, right string) exp.JoinCondition {
	return goqu.On(goqu.I(left).Eq(goqu.I(right)))
}

// listAllQuery is the denormalized read over events and everything they
// reference. Formations are joined on their training type, as the upstream
// schema does.
func (a *RecordAdapter) listAllQuery() (string, []interface{}, error) {
	return a.db.From(goqu.T("jpo").As("j")).
		Select(recordColumns()...).
		LeftJoin(goqu.T("composante").As("c"), on("j.id_composante", "c.id_composante")).
		LeftJoin(goqu.T("ville").As("v"), on("c.id_ville", "v.id_ville")).
		LeftJoin(goqu.T("departement").As("d"), on("v.num_dep", "d.num_dep")).
		LeftJoin(goqu.T("region").As("r"), on("d.num_region", "r.num_region")).
		LeftJoin(goqu.T("etablissement").As("e"), on("c.id_etablissement", "e.id_etablissement")).
		LeftJoin(goqu.T("formation").As("f"), on("c.id_composante", "f.id_type_formation")).
		LeftJoin(goqu.T("type_formation").As("t"), on("f.id_type_formation", "t.id_type_formation")).
		Order(goqu.I("j.id_jpo").Asc()).
		ToSQL()
}

// ListAll returns every record
func (a *RecordAdapter) ListAll(ctx context.Context) ([]*entities.Record, error) {
	query, args, err := a.listAllQuery()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build records query", err)
	}

	start := time.Now()
	defer a.recordDuration(ctx, "list_records", start)

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list records", err)
	}
	defer rows.Close()

	records := make([]*entities.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate records", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (*entities.Record, error) {
	record := &entities.Record{}
	var (
		date, heure, nomComposante, adresse, coordonnees    sql.NullString
		nomVille, codePostal, nomRegion, nomEtablissement   sql.NullString
		tel, siteWeb, nomDiplome, intitule, stages          sql.NullString
		stagesEtranger, debouches, doubleDiplome, relations sql.NullString
		idComposante, idVille, idEtablissement, duree       sql.NullInt64
	)

	err := rows.Scan(
		&record.ID,
		&date,
		&heure,
		&idComposante,
		&nomComposante,
		&adresse,
		&coordonnees,
		&idVille,
		&nomVille,
		&codePostal,
		&nomRegion,
		&idEtablissement,
		&nomEtablissement,
		&tel,
		&siteWeb,
		&nomDiplome,
		&duree,
		&intitule,
		&stages,
		&stagesEtranger,
		&debouches,
		&doubleDiplome,
		&relations,
	)
	if err != nil {
		return nil, err
	}

	record.Date = nullString(date)
	record.Time = nullString(heure)
	record.ComponentID = nullInt(idComposante)
	record.ComponentName = nullString(nomComposante)
	record.Address = nullString(adresse)
	record.Coordinates = nullString(coordonnees)
	record.CityID = nullInt(idVille)
	record.City = nullString(nomVille)
	record.PostalCode = nullString(codePostal)
	record.Region = nullString(nomRegion)
	record.InstitutionID = nullInt(idEtablissement)
	record.Institution = nullString(nomEtablissement)
	record.Phone = nullString(tel)
	record.Website = nullString(siteWeb)
	record.DiplomaName = nullString(nomDiplome)
	record.Duration = nullInt(duree)
	record.Title = nullString(intitule)
	record.Internships = nullString(stages)
	record.InternshipsAbroad = nullString(stagesEtranger)
	record.Outcomes = nullString(debouches)
	record.DoubleDegree = nullString(doubleDiplome)
	record.InternationalRelations = nullString(relations)

	return record, nil
}

// FacetOptions returns distinct facet values
func (a *RecordAdapter) FacetOptions(ctx context.Context) (*entities.FacetOptions, error) {
	start := time.Now()
	defer a.recordDuration(ctx, "facet_options", start)

	regions, err := a.distinct(ctx, "region", "nom_region")
	if err != nil {
		return nil, err
	}
	cities, err := a.distinct(ctx, "ville", "nom_ville")
	if err != nil {
		return nil, err
	}
	institutions, err := a.distinct(ctx, "etablissement", "nom_etablissement")
	if err != nil {
		return nil, err
	}
	diplomas, err := a.distinct(ctx, "type_formation", "nom_diplome")
	if err != nil {
		return nil, err
	}

	return &entities.FacetOptions{
		Regions:      regions,
		Cities:       cities,
		Institutions: institutions,
		Diplomas:     diplomas,
	}, nil
}

func (a *RecordAdapter) distinct(ctx context.Context, table, column string) ([]string, error) {
	query, args, err := a.db.From(table).
		Select(goqu.C(column)).
		Distinct().
		Where(goqu.C(column).IsNotNull()).
		Order(goqu.C(column).Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build facet query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list "+column, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+column, err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate "+column, err)
	}
	return values, nil
}

func (a *RecordAdapter) recordDuration(ctx context.Context, operation string, start time.Time) {
	if a.metrics == nil {
		return
	}
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}
