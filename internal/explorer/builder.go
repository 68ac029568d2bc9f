// Package explorer builds the schema tree the GUI sidebar walks. The tree is
// loaded lazily: the client posts the node it wants expanded and gets the
// children back, each carrying enough metadata (database, schema, table) to
// be expanded in turn without re-deriving context from the ID path.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/onehub-labs/onehub/internal/session"
	"github.com/onehub-labs/onehub/internal/store"
	"github.com/onehub-labs/onehub/pkg/core"
)

// Builder expands schema tree nodes. It resolves stored connections through
// the metadata store and borrows live sessions from the session manager for
// the duration of one expansion.
type Builder struct {
	sessions *session.Manager
	store    *store.Store
	logger   *slog.Logger
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(sessions *session.Manager, st *store.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{sessions: sessions, store: st, logger: logger}
}

// RootNode builds the tree root for a stored connection.
func RootNode(rec *store.Connection) (*core.Node, error) {
	params, err := rec.DatabaseParams()
	if err != nil {
		return nil, err
	}
	return core.NewNode(rec.ID, rec.Name, core.NodeConnection, rec.ID, params.DBType), nil
}

// Children expands one node. Connection nodes list databases, database nodes
// list schemas (or object folders when the engine has no schemas), schema
// nodes list object folders scoped to the schema, and table nodes list the
// column/index/foreign-key/trigger folders. Folder children are built when
// the parent expands, so folders just return their cache; leaves are empty.
func (b *Builder) Children(ctx context.Context, node *core.Node) ([]*core.Node, error) {
	switch node.Type {
	case core.NodeConnection, core.NodeDatabase, core.NodeSchema, core.NodeTable:
		// Live lookups below.
	case core.NodeTablesFolder, core.NodeViewsFolder, core.NodeFunctionsFolder,
		core.NodeProcFolder, core.NodeSequencesFolder, core.NodeQueriesFolder,
		core.NodeColumnsFolder, core.NodeIndexesFolder, core.NodeForeignKeyFolder,
		core.NodeTriggersFolder:
		if node.ChildrenLoaded {
			return node.Children, nil
		}
		return nil, nil
	default:
		return nil, nil
	}

	rec, err := b.store.GetConnection(ctx, node.ConnectionID)
	if err != nil {
		return nil, err
	}
	cfg, err := rec.Config()
	if err != nil {
		return nil, err
	}

	var children []*core.Node
	err = b.sessions.WithSession(ctx, rec.ID, cfg, contextDatabase(node), func(s *session.Session) error {
		var lerr error
		children, lerr = b.expand(ctx, s, node)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (b *Builder) expand(ctx context.Context, s *session.Session, node *core.Node) ([]*core.Node, error) {
	switch node.Type {
	case core.NodeConnection:
		return b.databaseNodes(ctx, s, node)
	case core.NodeDatabase:
		if s.Plugin.SupportsSchemas() {
			return b.schemaNodes(ctx, s, node)
		}
		return b.objectFolders(ctx, s, node, "")
	case core.NodeSchema:
		return b.objectFolders(ctx, s, node, node.Meta("schema"))
	case core.NodeTable:
		return b.tableFolders(ctx, s, node)
	}
	return nil, nil
}

func (b *Builder) databaseNodes(ctx context.Context, s *session.Session, node *core.Node) ([]*core.Node, error) {
	names, err := s.Plugin.ListDatabases(ctx, s.Conn)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	children := make([]*core.Node, 0, len(names))
	for _, name := range names {
		children = append(children, core.NewNode(
			node.ID+":"+name, name, core.NodeDatabase, node.ConnectionID, node.DatabaseType,
		).WithParent(node.ID))
	}
	return children, nil
}

func (b *Builder) schemaNodes(ctx context.Context, s *session.Session, node *core.Node) ([]*core.Node, error) {
	db := databaseName(node)
	names, err := s.Plugin.ListSchemas(ctx, s.Conn, db)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	children := make([]*core.Node, 0, len(names))
	for _, name := range names {
		child := core.NewNode(
			fmt.Sprintf("%s:schema:%s", node.ID, name), name, core.NodeSchema,
			node.ConnectionID, node.DatabaseType,
		).WithParent(node.ID).WithMetadata(map[string]string{
			"database": db,
			"schema":   name,
		})
		children = append(children, child)
	}
	return children, nil
}

// objectFolders builds the Tables/Views/Functions/Procedures/Sequences
// folders under a database or schema node, plus the saved-queries folder
// from the metadata store. The five catalog listings run concurrently.
// Tables and views are load-bearing and fail the expansion; routine and
// sequence catalogs are missing on some engines, so their errors degrade to
// empty folders.
func (b *Builder) objectFolders(ctx context.Context, s *session.Session, node *core.Node, schema string) ([]*core.Node, error) {
	db := databaseName(node)
	base := map[string]string{"database": db}
	if schema != "" {
		base["schema"] = schema
	}

	var (
		tables     []core.TableInfo
		views      []core.ViewInfo
		functions  []core.RoutineInfo
		procedures []core.RoutineInfo
		sequences  []core.SequenceInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tables, err = s.Plugin.ListTables(gctx, s.Conn, db); err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if views, err = s.Plugin.ListViews(gctx, s.Conn, db); err != nil {
			return fmt.Errorf("failed to list views: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if functions, err = s.Plugin.ListFunctions(gctx, s.Conn, db); err != nil {
			b.logger.Debug("listing functions failed", "database", db, "error", err)
			functions = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if procedures, err = s.Plugin.ListProcedures(gctx, s.Conn, db); err != nil {
			b.logger.Debug("listing procedures failed", "database", db, "error", err)
			procedures = nil
		}
		return nil
	})
	hasSequences := s.Plugin.SupportsSequences()
	if hasSequences {
		g.Go(func() error {
			var err error
			if sequences, err = s.Plugin.ListSequences(gctx, s.Conn, db); err != nil {
				b.logger.Debug("listing sequences failed", "database", db, "error", err)
				sequences = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Functions and procedures are listed per database on every engine we
	// ship, so schema nodes show them unfiltered.
	if schema != "" {
		tables = filterTables(tables, schema)
		views = filterViews(views, schema)
		sequences = filterSequences(sequences, schema)
	}

	children := make([]*core.Node, 0, 6)
	children = append(children, b.tablesFolder(node, base, tables))
	children = append(children, b.viewsFolder(node, base, views))
	children = append(children, b.routinesFolder(node, base, core.NodeFunctionsFolder, core.NodeFunction, functions))
	children = append(children, b.routinesFolder(node, base, core.NodeProcFolder, core.NodeProcedure, procedures))
	if hasSequences {
		children = append(children, b.sequencesFolder(node, base, sequences))
	}
	children = append(children, b.queriesFolder(ctx, node, base))
	return children, nil
}

func (b *Builder) tablesFolder(parent *core.Node, base map[string]string, tables []core.TableInfo) *core.Node {
	f := folder(parent, core.NodeTablesFolder, len(tables), cloneMeta(base))
	if len(tables) == 0 {
		return f
	}
	kids := make([]*core.Node, 0, len(tables))
	for _, t := range tables {
		md := cloneMeta(base)
		if t.Comment != nil && *t.Comment != "" {
			md["comment"] = *t.Comment
		}
		kids = append(kids, core.NewNode(
			f.ID+":"+t.Name, t.Name, core.NodeTable, parent.ConnectionID, parent.DatabaseType,
		).WithParent(f.ID).WithMetadata(md))
	}
	f.SetChildren(kids)
	return f
}

func (b *Builder) viewsFolder(parent *core.Node, base map[string]string, views []core.ViewInfo) *core.Node {
	f := folder(parent, core.NodeViewsFolder, len(views), cloneMeta(base))
	if len(views) == 0 {
		return f
	}
	kids := make([]*core.Node, 0, len(views))
	for _, v := range views {
		md := cloneMeta(base)
		if v.Comment != nil && *v.Comment != "" {
			md["comment"] = *v.Comment
		}
		kids = append(kids, core.NewNode(
			f.ID+":"+v.Name, v.Name, core.NodeView, parent.ConnectionID, parent.DatabaseType,
		).WithParent(f.ID).WithMetadata(md))
	}
	f.SetChildren(kids)
	return f
}

func (b *Builder) routinesFolder(parent *core.Node, base map[string]string, folderType, leafType core.NodeType, routines []core.RoutineInfo) *core.Node {
	f := folder(parent, folderType, len(routines), cloneMeta(base))
	if len(routines) == 0 {
		return f
	}
	kids := make([]*core.Node, 0, len(routines))
	for _, r := range routines {
		kids = append(kids, core.NewNode(
			f.ID+":"+r.Name, r.Name, leafType, parent.ConnectionID, parent.DatabaseType,
		).WithParent(f.ID).WithMetadata(cloneMeta(base)))
	}
	f.SetChildren(kids)
	return f
}

func (b *Builder) sequencesFolder(parent *core.Node, base map[string]string, sequences []core.SequenceInfo) *core.Node {
	f := folder(parent, core.NodeSequencesFolder, len(sequences), cloneMeta(base))
	if len(sequences) == 0 {
		return f
	}
	kids := make([]*core.Node, 0, len(sequences))
	for _, sq := range sequences {
		md := cloneMeta(base)
		putInt64(md, "start_value", sq.StartValue)
		putInt64(md, "increment", sq.Increment)
		putInt64(md, "min_value", sq.MinValue)
		putInt64(md, "max_value", sq.MaxValue)
		kids = append(kids, core.NewNode(
			f.ID+":"+sq.Name, sq.Name, core.NodeSequence, parent.ConnectionID, parent.DatabaseType,
		).WithParent(f.ID).WithMetadata(md))
	}
	f.SetChildren(kids)
	return f
}

// queriesFolder lists the connection's saved queries. A store failure is
// logged and shown as an empty folder; the live tree stays usable.
func (b *Builder) queriesFolder(ctx context.Context, parent *core.Node, base map[string]string) *core.Node {
	saved, err := b.store.ListQueriesByConnection(ctx, parent.ConnectionID)
	if err != nil {
		b.logger.Warn("listing saved queries failed",
			"connection_id", parent.ConnectionID, "error", err)
		saved = nil
	}
	f := folder(parent, core.NodeQueriesFolder, len(saved), cloneMeta(base))
	if len(saved) == 0 {
		return f
	}
	kids := make([]*core.Node, 0, len(saved))
	for _, q := range saved {
		md := cloneMeta(base)
		md["query_id"] = strconv.FormatInt(q.ID, 10)
		kids = append(kids, core.NewNode(
			fmt.Sprintf("%s:%d", f.ID, q.ID), q.Name, core.NodeNamedQuery,
			parent.ConnectionID, parent.DatabaseType,
		).WithParent(f.ID).WithMetadata(md))
	}
	f.SetChildren(kids)
	return f
}

// tableFolders builds the Columns/Indexes/Foreign Keys/Triggers folders
// under a table node. Columns and indexes fail the expansion; foreign keys
// and triggers degrade to empty folders on engines that cannot list them.
func (b *Builder) tableFolders(ctx context.Context, s *session.Session, node *core.Node) ([]*core.Node, error) {
	db := node.Meta("database")
	if db == "" {
		return nil, fmt.Errorf("table node %s has no database metadata", node.ID)
	}
	base := cloneMeta(node.Metadata)
	base["table"] = node.Name

	var (
		columns  []core.ColumnInfo
		indexes  []core.IndexInfo
		fks      []core.ForeignKeyInfo
		triggers []core.TriggerInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if columns, err = s.Plugin.ListColumns(gctx, s.Conn, db, node.Name); err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if indexes, err = s.Plugin.ListIndexes(gctx, s.Conn, db, node.Name); err != nil {
			return fmt.Errorf("failed to list indexes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if fks, err = s.Plugin.ListForeignKeys(gctx, s.Conn, db, node.Name); err != nil {
			b.logger.Debug("listing foreign keys failed",
				"database", db, "table", node.Name, "error", err)
			fks = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if triggers, err = s.Plugin.ListTableTriggers(gctx, s.Conn, db, node.Name); err != nil {
			b.logger.Debug("listing triggers failed",
				"database", db, "table", node.Name, "error", err)
			triggers = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// MySQL reports the implicit primary-key index as PRIMARY; the Columns
	// folder already marks key columns, so drop it here.
	kept := indexes[:0]
	for _, ix := range indexes {
		if !strings.EqualFold(ix.Name, "PRIMARY") {
			kept = append(kept, ix)
		}
	}
	indexes = kept

	columnsFolder := folder(node, core.NodeColumnsFolder, len(columns), cloneMeta(base))
	if len(columns) > 0 {
		kids := make([]*core.Node, 0, len(columns))
		for _, c := range columns {
			md := cloneMeta(base)
			md["type"] = c.DataType
			md["is_nullable"] = strconv.FormatBool(c.Nullable)
			md["is_primary_key"] = strconv.FormatBool(c.PrimaryKey)
			kids = append(kids, core.NewNode(
				columnsFolder.ID+":"+c.Name, c.Name, core.NodeColumn,
				node.ConnectionID, node.DatabaseType,
			).WithParent(columnsFolder.ID).WithMetadata(md))
		}
		columnsFolder.SetChildren(kids)
	}

	indexesFolder := folder(node, core.NodeIndexesFolder, len(indexes), cloneMeta(base))
	if len(indexes) > 0 {
		kids := make([]*core.Node, 0, len(indexes))
		for _, ix := range indexes {
			md := cloneMeta(base)
			md["unique"] = strconv.FormatBool(ix.Unique)
			md["columns"] = strings.Join(ix.Columns, ", ")
			kids = append(kids, core.NewNode(
				indexesFolder.ID+":"+ix.Name, ix.Name, core.NodeIndex,
				node.ConnectionID, node.DatabaseType,
			).WithParent(indexesFolder.ID).WithMetadata(md))
		}
		indexesFolder.SetChildren(kids)
	}

	fksFolder := folder(node, core.NodeForeignKeyFolder, len(fks), cloneMeta(base))
	if len(fks) > 0 {
		kids := make([]*core.Node, 0, len(fks))
		for _, fk := range fks {
			md := cloneMeta(base)
			md["columns"] = strings.Join(fk.Columns, ", ")
			md["ref_table"] = fk.RefTable
			md["ref_columns"] = strings.Join(fk.RefColumns, ", ")
			kids = append(kids, core.NewNode(
				fksFolder.ID+":"+fk.Name, fk.Name, core.NodeForeignKey,
				node.ConnectionID, node.DatabaseType,
			).WithParent(fksFolder.ID).WithMetadata(md))
		}
		fksFolder.SetChildren(kids)
	}

	triggersFolder := folder(node, core.NodeTriggersFolder, len(triggers), cloneMeta(base))
	if len(triggers) > 0 {
		kids := make([]*core.Node, 0, len(triggers))
		for _, tr := range triggers {
			md := cloneMeta(base)
			md["event"] = tr.Event
			md["timing"] = tr.Timing
			kids = append(kids, core.NewNode(
				triggersFolder.ID+":"+tr.Name, tr.Name, core.NodeTrigger,
				node.ConnectionID, node.DatabaseType,
			).WithParent(triggersFolder.ID).WithMetadata(md))
		}
		triggersFolder.SetChildren(kids)
	}

	return []*core.Node{columnsFolder, indexesFolder, fksFolder, triggersFolder}, nil
}

// folder builds an object folder node named "Label (count)". The ID segment
// is the node type, so a tables folder under conn1:mydb gets the ID
// conn1:mydb:tables_folder.
func folder(parent *core.Node, t core.NodeType, count int, md map[string]string) *core.Node {
	name := fmt.Sprintf("%s (%d)", t.Label(), count)
	return core.NewNode(
		parent.ID+":"+string(t), name, t, parent.ConnectionID, parent.DatabaseType,
	).WithParent(parent.ID).WithMetadata(md)
}

// databaseName resolves the database a node belongs to. Database nodes carry
// it as their name; deeper nodes inherit it through metadata.
func databaseName(n *core.Node) string {
	if db := n.Meta("database"); db != "" {
		return db
	}
	return n.Name
}

// contextDatabase picks the database the borrowed session should sit on.
// Connection-level expansion has no database context yet.
func contextDatabase(n *core.Node) string {
	switch n.Type {
	case core.NodeConnection:
		return ""
	case core.NodeDatabase:
		return databaseName(n)
	default:
		return n.Meta("database")
	}
}

func cloneMeta(md map[string]string) map[string]string {
	out := make(map[string]string, len(md)+2)
	maps.Copy(out, md)
	return out
}

func putInt64(md map[string]string, key string, v *int64) {
	if v != nil {
		md[key] = strconv.FormatInt(*v, 10)
	}
}

func filterTables(tables []core.TableInfo, schema string) []core.TableInfo {
	out := tables[:0]
	for _, t := range tables {
		if t.Schema != nil && *t.Schema == schema {
			out = append(out, t)
		}
	}
	return out
}

func filterViews(views []core.ViewInfo, schema string) []core.ViewInfo {
	out := views[:0]
	for _, v := range views {
		if v.Schema != nil && *v.Schema == schema {
			out = append(out, v)
		}
	}
	return out
}

// filterSequences keeps sequences whose schema-qualified name starts with
// the schema. Postgres reports sequences as "schema.name".
func filterSequences(sequences []core.SequenceInfo, schema string) []core.SequenceInfo {
	out := sequences[:0]
	prefix := schema + "."
	for _, sq := range sequences {
		if strings.HasPrefix(sq.Name, prefix) {
			out = append(out, sq)
		}
	}
	return out
}
