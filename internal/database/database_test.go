package database

import (
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLStoreSQLite(t *testing.T) {
	db, err := OpenSQLStore(DialectSQLite, filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	require.Equal(t, 1, one)
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := OpenSQLStore(DialectSQLite, "")
	require.Error(t, err)
	_, err = OpenSQLStore(DialectPostgres, "")
	require.Error(t, err)
	_, err = ConnectRedis("")
	require.Error(t, err)
	_, err = ConnectNATS("", "test")
	require.Error(t, err)
}

func TestOpenSQLStoreRejectsUnknownDialect(t *testing.T) {
	_, err := OpenSQLStore("mysql", "root@/records")
	require.ErrorContains(t, err, "unsupported sql dialect")
}

func TestConnectRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client, err := ConnectRedis("redis://" + server.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis("not a url")
	require.Error(t, err)
}
