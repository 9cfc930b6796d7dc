package projects

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// LinkOwners agrega projectID al registro managedProjectIds de cada owner
// del namespace interno. Un owner inexistente no aborta: se retorna como
// NonFatalAnomaly y se sigue con el siguiente. Cualquier otro error del
// store sí se propaga (y hace rollback de la transacción que lo contiene).
func LinkOwners(ctx context.Context, owners repository.OwnerRepository, projectID string, ownerIDs []string) ([]NonFatalAnomaly, error) {
	var anomalies []NonFatalAnomaly
	for _, uid := range ownerIDs {
		err := owners.AppendManagedProject(ctx, uid, projectID)
		switch {
		case err == nil:
		case repository.IsNotFound(err):
			anomalies = append(anomalies, NonFatalAnomaly{
				Kind:   AnomalyOwnerNotFound,
				Record: "owner_user:" + repository.InternalProjectID + "/" + uid,
				Reason: "owner does not exist; project " + projectID + " not linked",
			})
		default:
			return anomalies, fmt.Errorf("link owner %s: %w", uid, err)
		}
	}
	return anomalies, nil
}
