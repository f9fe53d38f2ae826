package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcequery/spyglass/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testNode(ip string, port int) models.Node {
	now := time.Now()
	return models.Node{
		IP:          ip,
		Port:        port,
		CountryCode: "DE",
		ServerName:  "Test Server",
		MapName:     "de_dust2",
		Folder:      "csgo",
		GameName:    "Counter-Strike: Global Offensive",
		GameVersion: "1.38.7.9",
		ServerOS:    "Linux",
		Keywords:    "secure",
		AppID:       730,
		Players:     10,
		MaxPlayers:  32,
		Bots:        1,
		VAC:         true,
		FirstSeen:   now,
		LastSeen:    now,
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertNode(testNode("1.2.3.4", 27015)))

	node, err := repo.GetNode("1.2.3.4", 27015)
	require.NoError(t, err)
	require.NotNil(t, node)

	assert.Equal(t, "Test Server", node.ServerName)
	assert.Equal(t, "csgo", node.Folder)
	assert.Equal(t, 730, node.AppID)
	assert.Equal(t, byte(10), node.Players)
	assert.True(t, node.VAC)
	assert.Equal(t, int64(1), node.Checks)

	// A second upsert of the same key increments the check counter.
	require.NoError(t, repo.UpsertNode(testNode("1.2.3.4", 27015)))
	node, err = repo.GetNode("1.2.3.4", 27015)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, int64(2), node.Checks)
}

func TestGetNode_Missing(t *testing.T) {
	repo := newTestRepo(t)

	node, err := repo.GetNode("9.9.9.9", 27015)
	require.NoError(t, err)
	assert.Nil(t, node)
}

// A failed re-check produces an upsert with an empty snapshot; the last
// good snapshot must survive it.
func TestUpsertKeepsSnapshotOnFailedCheck(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertNode(testNode("1.2.3.4", 27015)))

	failed := models.Node{
		IP:        "1.2.3.4",
		Port:      27015,
		FirstSeen: time.Now(),
		LastSeen:  time.Now(),
	}
	require.NoError(t, repo.UpsertNode(failed))

	node, err := repo.GetNode("1.2.3.4", 27015)
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "Test Server", node.ServerName)
	assert.Equal(t, "de_dust2", node.MapName)
	assert.Equal(t, int64(2), node.Checks)
}

func TestDeleteNode(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.UpsertNode(testNode("1.2.3.4", 27015)))

	require.NoError(t, repo.DeleteNode("1.2.3.4", 27015))

	node, err := repo.GetNode("1.2.3.4", 27015)
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestDeleteEmptyNodes(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertNode(testNode("1.2.3.4", 27015)))

	empty := models.Node{IP: "5.6.7.8", Port: 27016, FirstSeen: time.Now(), LastSeen: time.Now()}
	require.NoError(t, repo.UpsertNode(empty))

	deleted, err := repo.DeleteEmptyNodes("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	nodes, err := repo.GetNodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "1.2.3.4", nodes[0].IP)
}

func TestGetNodesSubset(t *testing.T) {
	repo := newTestRepo(t)

	csgo := testNode("1.2.3.4", 27015)
	require.NoError(t, repo.UpsertNode(csgo))

	tf := testNode("4.3.2.1", 27015)
	tf.Folder = "tf"
	require.NoError(t, repo.UpsertNode(tf))

	empty := models.Node{IP: "5.6.7.8", Port: 27016, FirstSeen: time.Now(), LastSeen: time.Now()}
	require.NoError(t, repo.UpsertNode(empty))

	all, err := repo.GetNodesSubset("", false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyCsgo, err := repo.GetNodesSubset("csgo", false)
	require.NoError(t, err)
	require.Len(t, onlyCsgo, 1)
	assert.Equal(t, "1.2.3.4", onlyCsgo[0].IP)

	onlyEmpty, err := repo.GetNodesSubset("", true)
	require.NoError(t, err)
	require.Len(t, onlyEmpty, 1)
	assert.Equal(t, "5.6.7.8", onlyEmpty[0].IP)
}
