/* namegen.go
 * Generates short tournament nicknames like "brave-wombat-42".
 */

package tournament

import (
	"fmt"
	"math/rand"
)

var nicknameAdjectives = []string{
	"brave", "sneaky", "rapid", "golden", "arctic", "mellow",
	"crimson", "lucky", "rustic", "stormy", "silent", "vivid",
}

var nicknameAnimals = []string{
	"wombat", "falcon", "lemur", "otter", "ibex", "puffin",
	"gecko", "heron", "badger", "civet", "tapir", "quokka",
}

// NewNickname returns a random tournament nickname.
func NewNickname() string {
	return fmt.Sprintf("%s-%s-%d",
		nicknameAdjectives[rand.Intn(len(nicknameAdjectives))],
		nicknameAnimals[rand.Intn(len(nicknameAnimals))],
		rand.Intn(100))
}
